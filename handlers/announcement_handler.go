package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matchpoint-app/matchpoint/middleware"
	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/services"
)

type AnnouncementHandler struct {
	announcementService services.AnnouncementService
}

func NewAnnouncementHandler(announcementService services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementService: announcementService}
}

func announcementID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "announcementID")
	if id == "" {
		return "", errors.New("missing announcement ID")
	}
	return id, nil
}

type createAnnouncementRequest struct {
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Audience    string     `json:"audience"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Draft       bool       `json:"draft"`
}

func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req createAnnouncementRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	announcement, err := h.announcementService.Create(r.Context(), userID, services.CreateAnnouncementInput{
		Title:       req.Title,
		Body:        req.Body,
		Audience:    req.Audience,
		ScheduledAt: req.ScheduledAt,
		Draft:       req.Draft,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, announcement, nil)
}

func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *models.AnnouncementStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.AnnouncementStatus(raw)
		status = &s
	}

	announcements, err := h.announcementService.List(r.Context(), status, queryInt(r, "limit", 20), queryInt(r, "offset", 0))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"announcements": announcements}, nil)
}

func (h *AnnouncementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := announcementID(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	announcement, err := h.announcementService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, announcement, nil)
}

type updateAnnouncementRequest struct {
	Title         *string    `json:"title"`
	Body          *string    `json:"body"`
	Audience      *string    `json:"audience"`
	ScheduledAt   *time.Time `json:"scheduled_at"`
	ClearSchedule bool       `json:"clear_schedule"`
}

func (h *AnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := announcementID(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req updateAnnouncementRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	announcement, err := h.announcementService.Update(r.Context(), id, services.UpdateAnnouncementInput{
		Title:         req.Title,
		Body:          req.Body,
		Audience:      req.Audience,
		ScheduledAt:   req.ScheduledAt,
		ClearSchedule: req.ClearSchedule,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, announcement, nil)
}

func (h *AnnouncementHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id, err := announcementID(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	announcement, err := h.announcementService.PublishNow(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, announcement, nil)
}

func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := announcementID(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.announcementService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
