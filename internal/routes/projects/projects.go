package projectRoutes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/orgchart/internal/app"
	"github.com/nikhil/orgchart/internal/middleware"
)

func ProjectRoutes(router *mux.Router, s *app.Services) {
	projectService := s.Projects

	protectedRouter := router.PathPrefix("/projects").Subrouter()
	protectedRouter.Use(middleware.AuthMiddleware(s.Tokens), middleware.ResponseWrapperMiddleware)
	protectedRouter.HandleFunc("/", projectService.GetProjects).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/", projectService.CreateProject).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{id:[0-9]+}/", projectService.GetProject).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{id:[0-9]+}/", projectService.UpdateProject).Methods(http.MethodPatch)
	protectedRouter.HandleFunc("/{id:[0-9]+}/change_status/", projectService.ChangeProjectStatus).Methods(http.MethodPatch)
	protectedRouter.HandleFunc("/{id:[0-9]+}/update_team/", projectService.UpdateTeam).Methods(http.MethodPut, http.MethodDelete)
}
