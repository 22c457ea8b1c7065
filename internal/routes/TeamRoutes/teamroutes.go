package teamroutes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/orgchart/internal/app"
	"github.com/nikhil/orgchart/internal/middleware"
)

func TeamRoutes(router *mux.Router, s *app.Services) {
	teamService := s.Teams

	protectedRouter := router.PathPrefix("/teams").Subrouter()
	protectedRouter.Use(middleware.AuthMiddleware(s.Tokens), middleware.ResponseWrapperMiddleware)
	protectedRouter.HandleFunc("/", teamService.GetTeams).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/", teamService.CreateTeam).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{id:[0-9]+}/", teamService.GetTeam).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/{id:[0-9]+}/", teamService.UpdateTeam).Methods(http.MethodPatch)
	protectedRouter.HandleFunc("/{id:[0-9]+}/change_employee/", teamService.ChangeEmployee).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/{id:[0-9]+}/add_member/", teamService.AddMember).Methods(http.MethodPut)
}
