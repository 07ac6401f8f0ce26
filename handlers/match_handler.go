package handlers

import (
	"net/http"

	"github.com/matchpoint-app/matchpoint/middleware"
	"github.com/matchpoint-app/matchpoint/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetByID(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, match, nil)
}

func (h *MatchHandler) ListByTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil)
}

type submitResultRequest struct {
	ScoreP1 int `json:"score_p1"`
	ScoreP2 int `json:"score_p2"`
}

// SubmitResult records the caller's scoreline for the match.
func (h *MatchHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req submitResultRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcome, match, err := h.matchService.SubmitResult(r.Context(), services.SubmitResultInput{
		MatchID: matchID,
		UserID:  userID,
		ScoreP1: req.ScoreP1,
		ScoreP2: req.ScoreP2,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"outcome": outcome, "match": match}, nil)
}

type overrideResultRequest struct {
	ScoreP1 int `json:"score_p1"`
	ScoreP2 int `json:"score_p2"`
}

// OverrideResult is the admin escape hatch for no-shows and mistakes.
func (h *MatchHandler) OverrideResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req overrideResultRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.OverrideResult(r.Context(), matchID, adminID, req.ScoreP1, req.ScoreP2)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, match, nil)
}
