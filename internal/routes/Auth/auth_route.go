package authRoute

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/orgchart/internal/app"
	"github.com/nikhil/orgchart/internal/middleware"
)

func RegisterAuthRoutes(router *mux.Router, s *app.Services) {
	// Public routes without auth middleware
	publicRouter := router.PathPrefix("/auth").Subrouter()
	publicRouter.Use(middleware.ResponseWrapperMiddleware)
	publicRouter.HandleFunc("/login/", s.Auth.Login).Methods(http.MethodPost)
}
