package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/orgchart/internal/app"
	"github.com/nikhil/orgchart/internal/middleware"
)

// RegisterWebSocketRoutes registers the team event feed. The token comes
// from the query string since browsers cannot set headers on upgrade.
func RegisterWebSocketRoutes(router *mux.Router, s *app.Services) {
	router.Handle("/ws/teams/{id:[0-9]+}",
		middleware.WebSocketAuthMiddleware(s.Tokens)(http.HandlerFunc(s.WebSocket.HandleWebSocket)),
	).Methods(http.MethodGet)
}
