package handlers

import (
	"net/http"

	"github.com/matchpoint-app/matchpoint/middleware"
	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/services"
)

type RegistrationHandler struct {
	registrationService services.RegistrationService
}

func NewRegistrationHandler(registrationService services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	registration, err := h.registrationService.Register(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registration, nil)
}

func (h *RegistrationHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var status *models.RegistrationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.RegistrationStatus(raw)
		status = &s
	}

	registrations, err := h.registrationService.ListByTournament(r.Context(), tournamentID, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"registrations": registrations}, nil)
}

func (h *RegistrationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	registrationID, err := idParam(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	registration, err := h.registrationService.Confirm(r.Context(), registrationID, userID, middleware.IsAdmin(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, registration, nil)
}

func (h *RegistrationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	registrationID, err := idParam(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	registration, err := h.registrationService.Withdraw(r.Context(), registrationID, userID, middleware.IsAdmin(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, registration, nil)
}
