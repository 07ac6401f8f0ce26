package handlers

import (
	"net/http"

	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/services"
)

type InboxHandler struct {
	inboxService services.InboxService
}

func NewInboxHandler(inboxService services.InboxService) *InboxHandler {
	return &InboxHandler{inboxService: inboxService}
}

type submitMessageRequest struct {
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// Submit is the public contact endpoint; no authentication required.
func (h *InboxHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitMessageRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	message, err := h.inboxService.Submit(r.Context(), services.SubmitMessageInput{
		SenderName:  req.SenderName,
		SenderEmail: req.SenderEmail,
		Subject:     req.Subject,
		Body:        req.Body,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, message, nil)
}

func (h *InboxHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *models.MessageStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.MessageStatus(raw)
		status = &s
	}

	messages, err := h.inboxService.List(r.Context(), status, queryInt(r, "limit", 20), queryInt(r, "offset", 0))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	unread, err := h.inboxService.UnreadCount(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"messages": messages, "unread_count": unread}, nil)
}

func (h *InboxHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "messageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	message, err := h.inboxService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message, nil)
}

func (h *InboxHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "messageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.inboxService.MarkRead(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type replyRequest struct {
	Body string `json:"body"`
}

func (h *InboxHandler) Reply(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "messageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req replyRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	message, err := h.inboxService.Reply(r.Context(), id, req.Body)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message, nil)
}

func (h *InboxHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "messageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.inboxService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
