package models

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nikhil/orgchart/internal/logger"
)

// Event types sent on a team feed.
const (
	EventMemberReparented = "member.reparented"
	EventMemberAdded      = "member.added"
	EventTeamUpdated      = "team.updated"
)

// Event is a structure change pushed to the clients watching a team.
type Event struct {
	Type     string `json:"type"`
	TeamID   int64  `json:"team_id"`
	MemberID int64  `json:"member_id,omitempty"`
	ParentID *int64 `json:"parent_id,omitempty"`
	ActorID  int64  `json:"actor_id"`
}

// Hub maintains the set of active clients per team and fans out team
// events to them.
type Hub struct {
	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Team-based routing: team id to its connected clients.
	TeamChannels map[int64]map[*Client]struct{}

	// Closed once Run has returned.
	done chan struct{}

	log *logger.Logger
	mu  sync.RWMutex
}

// Client represents a WebSocket connection watching one team.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	UserID int64
	TeamID int64
}

// NewHub creates a new Hub instance
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		Register:     make(chan *Client),
		Unregister:   make(chan *Client),
		TeamChannels: make(map[int64]map[*Client]struct{}),
		done:         make(chan struct{}),
		log:          log,
	}
}

// Run handles registrations until ctx is done, then disconnects every client.
// Run must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, exists := h.TeamChannels[client.TeamID]; !exists {
				h.TeamChannels[client.TeamID] = make(map[*Client]struct{})
			}
			h.TeamChannels[client.TeamID][client] = struct{}{}
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for _, clients := range h.TeamChannels {
				for client := range clients {
					h.remove(client)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// Done is closed once the hub has stopped.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Subscribe hands client to the hub. It reports false when the hub has
// stopped and the client was not registered.
func (h *Hub) Subscribe(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unsubscribe removes client. After the hub has stopped every client is
// already removed, so there is nothing to wait for.
func (h *Hub) Unsubscribe(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, exists := h.TeamChannels[client.TeamID]
	if !exists {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.TeamChannels, client.TeamID)
	}
}

// BroadcastToTeam sends event to all clients watching the event's team.
// Clients whose buffer is full are disconnected.
func (h *Hub) BroadcastToTeam(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		h.log.Error("Failed to encode team event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.TeamChannels[event.TeamID] {
		select {
		case client.Send <- message:
		default:
			h.log.Warn("Dropping slow websocket client", "team_id", client.TeamID, "user_id", client.UserID)
			h.remove(client)
		}
	}
}

// ConnectedCount returns the number of clients watching teamID.
func (h *Hub) ConnectedCount(teamID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.TeamChannels[teamID])
}

// ReadPump drains the connection so control frames are processed. The feed
// is server to client only; inbound messages are discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unsubscribe(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Debug("Websocket closed unexpectedly", "team_id", c.TeamID, "user_id", c.UserID, "error", err)
			}
			return
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed
	maxMessageSize = 512
)
