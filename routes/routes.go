package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/matchpoint-app/matchpoint/handlers"
	"github.com/matchpoint-app/matchpoint/middleware"
	"github.com/matchpoint-app/matchpoint/models"
)

type Handlers struct {
	Tournament   *handlers.TournamentHandler
	Registration *handlers.RegistrationHandler
	Match        *handlers.MatchHandler
	Dispute      *handlers.DisputeHandler
	Announcement *handlers.AnnouncementHandler
	Inbox        *handlers.InboxHandler
	Analytics    *handlers.AnalyticsHandler
	Setting      *handlers.SettingHandler
	User         *handlers.UserHandler
	WebSocket    *handlers.WebSocketHandler
}

func SetupRoutes(router *chi.Mux, h Handlers, jwtSecret string, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.Metrics)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Access-Code"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/swagger/*", httpSwagger.Handler())

	// Public contact form.
	router.Post("/contact", h.Inbox.Submit)

	// Public share links.
	router.Get("/shared/tournaments/{shareToken}", h.Tournament.GetShared)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.List)
		r.Get("/{tournamentID}", h.Tournament.Get)
		r.Get("/{tournamentID}/bracket", h.Tournament.GetBracket)
		r.Get("/{tournamentID}/matches", h.Match.ListByTournament)
		r.Get("/{tournamentID}/registrations", h.Registration.List)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", h.Tournament.Create)
			r.Put("/{tournamentID}", h.Tournament.Update)
			r.Delete("/{tournamentID}", h.Tournament.Delete)
			r.Post("/{tournamentID}/start", h.Tournament.Start)
			r.Post("/{tournamentID}/status", h.Tournament.ChangeStatus)
			r.Post("/{tournamentID}/banner", h.Tournament.UploadBanner)
			r.Post("/{tournamentID}/registrations", h.Registration.Register)
		})
	})

	router.Route("/registrations", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/{registrationID}/confirm", h.Registration.Confirm)
		r.Post("/{registrationID}/withdraw", h.Registration.Withdraw)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", h.Match.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{matchID}/result", h.Match.SubmitResult)

			r.With(adminOnly).Post("/{matchID}/override", h.Match.OverrideResult)
		})
	})

	router.Route("/disputes", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)
		r.Get("/", h.Dispute.List)
		r.Get("/{disputeID}", h.Dispute.Get)
		r.Post("/{disputeID}/resolve", h.Dispute.Resolve)
	})

	router.Route("/announcements", func(r chi.Router) {
		r.Get("/", h.Announcement.List)
		r.Get("/{announcementID}", h.Announcement.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/", h.Announcement.Create)
			r.Put("/{announcementID}", h.Announcement.Update)
			r.Post("/{announcementID}/publish", h.Announcement.Publish)
			r.Delete("/{announcementID}", h.Announcement.Delete)
		})
	})

	router.Route("/inbox", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)
		r.Get("/", h.Inbox.List)
		r.Get("/{messageID}", h.Inbox.Get)
		r.Post("/{messageID}/read", h.Inbox.MarkRead)
		r.Post("/{messageID}/reply", h.Inbox.Reply)
		r.Delete("/{messageID}", h.Inbox.Delete)
	})

	router.Route("/analytics", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)
		r.Get("/dashboard", h.Analytics.Dashboard)
		r.Get("/registrations-per-day", h.Analytics.RegistrationsPerDay)
		r.Get("/tournament-statuses", h.Analytics.StatusBreakdown)
		r.Get("/tournaments/{tournamentID}", h.Analytics.TournamentSummary)
	})

	router.Route("/settings", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)
		r.Get("/", h.Setting.List)
		r.Get("/{key}", h.Setting.Get)
		r.Put("/{key}", h.Setting.Update)
		r.Delete("/{key}", h.Setting.Delete)
	})

	router.Route("/users", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/me", h.User.Me)
		r.Post("/me/avatar", h.User.UploadAvatar)
		r.Get("/{userID}", h.User.Get)
		r.Put("/{userID}/display-name", h.User.UpdateDisplayName)

		r.With(adminOnly).Get("/", h.User.List)
	})

	router.Route("/ws", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/lobby", h.WebSocket.ServeLobby)
		r.Get("/tournaments/{tournamentID}", h.WebSocket.ServeTournament)
	})
}
