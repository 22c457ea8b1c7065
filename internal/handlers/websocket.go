package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/nikhil/orgchart/internal/logger"
	"github.com/nikhil/orgchart/internal/middleware"
	"github.com/nikhil/orgchart/internal/models"
	"github.com/nikhil/orgchart/internal/repository"
	"github.com/nikhil/orgchart/internal/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler serves the live structure feed of a team.
type WebSocketHandler struct {
	hub   *models.Hub
	teams repository.TeamRepository
	log   *logger.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *models.Hub, teams repository.TeamRepository, log *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, teams: teams, log: log}
}

// HandleWebSocket upgrades the connection and subscribes it to the team in
// the path.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.CurrentUser(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	teamID, err := response.PathID(mux.Vars(r), "id")
	if err != nil {
		response.WriteError(w, r, h.log, err)
		return
	}
	if _, err := h.teams.GetTeam(r.Context(), teamID); err != nil {
		response.WriteError(w, r, h.log, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithContext(r.Context()).Warn("Error upgrading connection", "error", err)
		return
	}

	client := &models.Client{
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: identity.UserID,
		TeamID: teamID,
	}
	if !h.hub.Subscribe(client) {
		// Shutting down
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
