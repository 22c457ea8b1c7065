package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/orgchart/internal/app"
	"github.com/nikhil/orgchart/internal/middleware"
	"github.com/nikhil/orgchart/internal/response"
	authRoute "github.com/nikhil/orgchart/internal/routes/Auth"
	teamroutes "github.com/nikhil/orgchart/internal/routes/TeamRoutes"
	filterRoutes "github.com/nikhil/orgchart/internal/routes/filters"
	memberRoutes "github.com/nikhil/orgchart/internal/routes/members"
	projectRoutes "github.com/nikhil/orgchart/internal/routes/projects"
	userRoutes "github.com/nikhil/orgchart/internal/routes/user"
)

// List of all route registration functions
var routeModules = []func(*mux.Router, *app.Services){
	authRoute.RegisterAuthRoutes,
	userRoutes.UserProfileRoutes,
	teamroutes.TeamRoutes,
	projectRoutes.ProjectRoutes,
	memberRoutes.MemberRoutes,
	filterRoutes.FilterRoutes,
	RegisterWebSocketRoutes,
}

// Register all routes dynamically
func RegisterAllRoutes(s *app.Services) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestID(s.Log))
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not found.")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	for _, register := range routeModules {
		register(router, s)
	}

	return router
}
