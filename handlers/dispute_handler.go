package handlers

import (
	"net/http"

	"github.com/matchpoint-app/matchpoint/middleware"
	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/services"
)

type DisputeHandler struct {
	disputeService services.DisputeService
}

func NewDisputeHandler(disputeService services.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputeService: disputeService}
}

func (h *DisputeHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *models.DisputeStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.DisputeStatus(raw)
		status = &s
	}

	disputes, err := h.disputeService.List(r.Context(), status, queryInt(r, "limit", 20), queryInt(r, "offset", 0))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"disputes": disputes}, nil)
}

func (h *DisputeHandler) Get(w http.ResponseWriter, r *http.Request) {
	disputeID, err := idParam(r, "disputeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	dispute, err := h.disputeService.GetByID(r.Context(), disputeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dispute, nil)
}

type resolveDisputeRequest struct {
	FinalScoreP1 int    `json:"final_score_p1"`
	FinalScoreP2 int    `json:"final_score_p2"`
	Note         string `json:"note"`
}

func (h *DisputeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	disputeID, err := idParam(r, "disputeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req resolveDisputeRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	dispute, err := h.disputeService.Resolve(r.Context(), services.ResolveDisputeInput{
		DisputeID:    disputeID,
		AdminID:      adminID,
		FinalScoreP1: req.FinalScoreP1,
		FinalScoreP2: req.FinalScoreP2,
		Note:         req.Note,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dispute, nil)
}
