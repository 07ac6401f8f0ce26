package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matchpoint-app/matchpoint/middleware"
	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/repositories"
	"github.com/matchpoint-app/matchpoint/services"
)

type TournamentHandler struct {
	tournamentService   services.TournamentService
	registrationService services.RegistrationService
	bracketService      services.BracketService
}

func NewTournamentHandler(
	tournamentService services.TournamentService,
	registrationService services.RegistrationService,
	bracketService services.BracketService,
) *TournamentHandler {
	return &TournamentHandler{
		tournamentService:   tournamentService,
		registrationService: registrationService,
		bracketService:      bracketService,
	}
}

type createTournamentRequest struct {
	Name                 string     `json:"name"`
	Description          *string    `json:"description"`
	Game                 string     `json:"game"`
	Format               string     `json:"format"`
	Capacity             int        `json:"capacity"`
	EntryFee             int        `json:"entry_fee"`
	RegistrationDeadline time.Time  `json:"registration_deadline"`
	StartDate            time.Time  `json:"start_date"`
	EndDate              *time.Time `json:"end_date"`
	AccessCode           *string    `json:"access_code"`
}

// Create godoc
// @Summary Create a tournament
// @Tags tournaments
// @Accept json
// @Produce json
// @Success 201 {object} models.Tournament
// @Router /tournaments [post]
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req createTournamentRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), userID, services.CreateTournamentInput{
		Name:                 req.Name,
		Description:          req.Description,
		Game:                 req.Game,
		Format:               models.TournamentFormat(req.Format),
		Capacity:             req.Capacity,
		EntryFee:             req.EntryFee,
		RegistrationDeadline: req.RegistrationDeadline,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		AccessCode:           req.AccessCode,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tournament, nil)
}

func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListTournamentsFilter{
		Limit:  queryInt(r, "limit", 20),
		Offset: queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.TournamentStatus(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("game"); raw != "" {
		filter.Game = &raw
	}
	if id := queryInt(r, "organizer_id", 0); id > 0 {
		filter.OrganizerID = &id
	}

	tournaments, err := h.tournamentService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil)
}

func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament, nil)
}

// GetShared resolves a public share link. The access code, when the
// tournament has one, travels in the X-Access-Code header.
func (h *TournamentHandler) GetShared(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "shareToken")
	if token == "" {
		badRequestResponse(w, r, errors.New("missing share token"))
		return
	}

	tournament, err := h.tournamentService.GetByShareToken(r.Context(), token, r.Header.Get("X-Access-Code"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament, nil)
}

type updateTournamentRequest struct {
	Name                 *string    `json:"name"`
	Description          *string    `json:"description"`
	Game                 *string    `json:"game"`
	Capacity             *int       `json:"capacity"`
	EntryFee             *int       `json:"entry_fee"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	StartDate            *time.Time `json:"start_date"`
	EndDate              *time.Time `json:"end_date"`
	AccessCode           *string    `json:"access_code"`
}

func (h *TournamentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req updateTournamentRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Update(r.Context(), id, userID, middleware.IsAdmin(r.Context()), services.UpdateTournamentInput{
		Name:                 req.Name,
		Description:          req.Description,
		Game:                 req.Game,
		Capacity:             req.Capacity,
		EntryFee:             req.EntryFee,
		RegistrationDeadline: req.RegistrationDeadline,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		AccessCode:           req.AccessCode,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament, nil)
}

func (h *TournamentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := h.tournamentService.Delete(r.Context(), id, userID, middleware.IsAdmin(r.Context())); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Start generates the bracket and opens play.
func (h *TournamentHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	tournament, err := h.tournamentService.Start(r.Context(), id, userID, middleware.IsAdmin(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament, nil)
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func (h *TournamentHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req changeStatusRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.ChangeStatus(r.Context(), id, userID, middleware.IsAdmin(r.Context()), models.TournamentStatus(req.Status))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament, nil)
}

// UploadBanner accepts a multipart form with a "banner" file field.
func (h *TournamentHandler) UploadBanner(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	file, header, err := formFile(r, "banner", 5<<20)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	tournament, err := h.tournamentService.UploadBanner(r.Context(), id, userID, middleware.IsAdmin(r.Context()),
		header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament, nil)
}

// GetBracket returns every match of the tournament, links included.
func (h *TournamentHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.bracketService.GetBracket(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil)
}
