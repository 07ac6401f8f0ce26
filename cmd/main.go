package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matchpoint-app/matchpoint/config"
	"github.com/matchpoint-app/matchpoint/db"
	"github.com/matchpoint-app/matchpoint/handlers"
	"github.com/matchpoint-app/matchpoint/realtime"
	"github.com/matchpoint-app/matchpoint/repositories"
	"github.com/matchpoint-app/matchpoint/routes"
	"github.com/matchpoint-app/matchpoint/services"
	"github.com/matchpoint-app/matchpoint/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(dbConn); err != nil {
		logger.Error("failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("object storage not configured, banner and avatar uploads disabled")
	}

	var emailSender services.EmailSender
	if cfg.EmailConfigured() {
		emailSender = services.NewEmailService(cfg)
		logger.Info("SMTP email sender initialized", slog.String("host", cfg.SMTPHost))
	} else {
		logger.Warn("SMTP not configured, outbound email disabled")
	}

	hub := realtime.NewHub(logger)
	go hub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	disputeRepo := repositories.NewPostgresDisputeRepository(dbConn)
	announcementRepo := repositories.NewPostgresAnnouncementRepository(dbConn)
	inboxRepo := repositories.NewPostgresInboxRepository(dbConn)
	settingRepo := repositories.NewPostgresSettingRepository(dbConn)
	analyticsRepo := repositories.NewPostgresAnalyticsRepository(dbConn)

	settingService := services.NewSettingService(settingRepo)
	bracketService := services.NewBracketService(dbConn, tournamentRepo, registrationRepo, matchRepo, logger)
	tournamentService := services.NewTournamentService(
		tournamentRepo,
		registrationRepo,
		userRepo,
		bracketService,
		settingService,
		uploader,
		hub,
		logger,
	)
	registrationService := services.NewRegistrationService(registrationRepo, tournamentRepo, hub, logger)
	matchService := services.NewMatchService(dbConn, matchRepo, registrationRepo, tournamentRepo, disputeRepo, hub, logger)
	disputeService := services.NewDisputeService(dbConn, disputeRepo, matchRepo, tournamentRepo, hub, logger)
	announcementService := services.NewAnnouncementService(announcementRepo, registrationRepo, settingService, emailSender, hub, logger)
	inboxService := services.NewInboxService(inboxRepo, emailSender, logger)
	userService := services.NewUserService(userRepo, uploader, logger)
	analyticsService := services.NewAnalyticsService(
		analyticsRepo,
		userRepo,
		tournamentRepo,
		registrationRepo,
		matchRepo,
		disputeRepo,
		inboxRepo,
	)
	logger.Info("services initialized")

	// Completes ongoing tournaments whose end date has passed.
	go func() {
		ticker := time.NewTicker(cfg.TournamentSweepInterval)
		defer ticker.Stop()
		logger.Info("tournament sweep scheduler started", slog.Duration("interval", cfg.TournamentSweepInterval))

		for {
			if n, err := tournamentService.CompleteExpired(context.Background(), time.Now()); err != nil {
				logger.Error("tournament sweep failed", slog.Any("error", err))
			} else if n > 0 {
				logger.Info("tournament sweep completed tournaments", slog.Int("count", n))
			}
			<-ticker.C
		}
	}()

	// Sends scheduled announcements that have come due.
	go func() {
		ticker := time.NewTicker(cfg.AnnouncementPublishInterval)
		defer ticker.Stop()
		logger.Info("announcement publish scheduler started", slog.Duration("interval", cfg.AnnouncementPublishInterval))

		for {
			if n, err := announcementService.PublishDue(context.Background(), time.Now()); err != nil {
				logger.Error("announcement publish run failed", slog.Any("error", err))
			} else if n > 0 {
				logger.Info("announcements published", slog.Int("count", n))
			}
			<-ticker.C
		}
	}()

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Tournament:   handlers.NewTournamentHandler(tournamentService, registrationService, bracketService),
		Registration: handlers.NewRegistrationHandler(registrationService),
		Match:        handlers.NewMatchHandler(matchService),
		Dispute:      handlers.NewDisputeHandler(disputeService),
		Announcement: handlers.NewAnnouncementHandler(announcementService),
		Inbox:        handlers.NewInboxHandler(inboxService),
		Analytics:    handlers.NewAnalyticsHandler(analyticsService),
		Setting:      handlers.NewSettingHandler(settingService),
		User:         handlers.NewUserHandler(userService),
		WebSocket:    handlers.NewWebSocketHandler(hub, tournamentService, logger),
	}, cfg.JWTSecretKey, cfg.AllowedOrigins)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		}
	}

	logger.Info("server stopped")
}
