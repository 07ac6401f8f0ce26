package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/matchpoint-app/matchpoint/middleware"
	"github.com/matchpoint-app/matchpoint/realtime"
	"github.com/matchpoint-app/matchpoint/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS middleware in front of
	// the router; the upgrader accepts what got that far.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub               *realtime.Hub
	tournamentService services.TournamentService
	logger            *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, tournamentService services.TournamentService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:               hub,
		tournamentService: tournamentService,
		logger:            logger,
	}
}

// ServeTournament subscribes the client to one tournament's events.
func (h *WebSocketHandler) ServeTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := strconv.Atoi(chi.URLParam(r, "tournamentID"))
	if err != nil || tournamentID <= 0 {
		http.Error(w, "invalid tournamentID", http.StatusBadRequest)
		return
	}
	if _, err := h.tournamentService.GetByID(r.Context(), tournamentID); err != nil {
		http.NotFound(w, r)
		return
	}

	h.serve(w, r, realtime.TournamentRoom(tournamentID))
}

// ServeLobby subscribes the client to global events.
func (h *WebSocketHandler) ServeLobby(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, realtime.LobbyRoom)
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, room string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.String("room", room), slog.Any("error", err))
		return
	}

	client := &realtime.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: room,
	}
	client.Hub.Register <- client

	middleware.WebsocketOpened()
	go client.WritePump()
	go func() {
		defer middleware.WebsocketClosed()
		client.ReadPump()
	}()
}
