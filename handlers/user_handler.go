package handlers

import (
	"net/http"

	"github.com/matchpoint-app/matchpoint/middleware"
	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me provisions the profile row from the verified token claims on
// first contact and returns it.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	user, err := h.userService.EnsureProfile(r.Context(), userID,
		middleware.GetUserNameFromContext(r.Context()),
		middleware.GetUserEmailFromContext(r.Context()),
		role)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user, nil)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.UserFilter{
		Search: r.URL.Query().Get("search"),
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 20),
	}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role := models.UserRole(raw)
		filter.Role = &role
	}

	response, err := h.userService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response, nil)
}

type updateDisplayNameRequest struct {
	DisplayName string `json:"display_name"`
}

func (h *UserHandler) UpdateDisplayName(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req updateDisplayNameRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.UpdateDisplayName(r.Context(), userID, actorID, middleware.IsAdmin(r.Context()), req.DisplayName)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user, nil)
}

// UploadAvatar accepts a multipart form with an "avatar" file field.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	file, header, err := formFile(r, "avatar", 2<<20)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	user, err := h.userService.UploadAvatar(r.Context(), actorID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user, nil)
}
