package userRoutes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/orgchart/internal/app"
	"github.com/nikhil/orgchart/internal/middleware"
)

func UserProfileRoutes(router *mux.Router, s *app.Services) {
	profileService := s.Profiles

	// Registered before the protected subrouter so it matches first.
	router.Handle("/users/cities/",
		middleware.ResponseWrapperMiddleware(http.HandlerFunc(profileService.GetCities)),
	).Methods(http.MethodGet)

	// Protected routes requiring authentication
	protectedRouter := router.PathPrefix("/users").Subrouter()
	protectedRouter.Use(middleware.AuthMiddleware(s.Tokens), middleware.ResponseWrapperMiddleware)

	protectedRouter.HandleFunc("/", profileService.GetUsers).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/", profileService.CreateUser).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/me/", profileService.GetUserProfile).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/me/", profileService.UpdateUserProfile).Methods(http.MethodPatch)
	protectedRouter.HandleFunc("/avatar/", profileService.ChangeAvatar).Methods(http.MethodPatch)
	protectedRouter.HandleFunc("/{id:[0-9]+}/", profileService.GetUser).Methods(http.MethodGet)
}
