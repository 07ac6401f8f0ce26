package handlers

import (
	"net/http"

	"github.com/matchpoint-app/matchpoint/services"
)

type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analyticsService.DashboardStats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats, nil)
}

func (h *AnalyticsHandler) RegistrationsPerDay(w http.ResponseWriter, r *http.Request) {
	series, err := h.analyticsService.RegistrationsPerDay(r.Context(), queryInt(r, "days", 30))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"registrations_per_day": series}, nil)
}

func (h *AnalyticsHandler) StatusBreakdown(w http.ResponseWriter, r *http.Request) {
	shares, err := h.analyticsService.TournamentStatusBreakdown(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"statuses": shares}, nil)
}

func (h *AnalyticsHandler) TournamentSummary(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	summary, err := h.analyticsService.TournamentSummary(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary, nil)
}
