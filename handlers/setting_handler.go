package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matchpoint-app/matchpoint/middleware"
	"github.com/matchpoint-app/matchpoint/services"
)

type SettingHandler struct {
	settingService services.SettingService
}

func NewSettingHandler(settingService services.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

func (h *SettingHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"settings": settings}, nil)
}

func (h *SettingHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		badRequestResponse(w, r, errors.New("missing setting key"))
		return
	}

	setting, err := h.settingService.Get(r.Context(), key)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setting, nil)
}

type updateSettingRequest struct {
	Value string `json:"value"`
}

func (h *SettingHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		badRequestResponse(w, r, errors.New("missing setting key"))
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req updateSettingRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	setting, err := h.settingService.Update(r.Context(), key, req.Value, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setting, nil)
}

func (h *SettingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		badRequestResponse(w, r, errors.New("missing setting key"))
		return
	}

	if err := h.settingService.Delete(r.Context(), key); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
