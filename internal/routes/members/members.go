package memberRoutes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/orgchart/internal/app"
	"github.com/nikhil/orgchart/internal/middleware"
)

func MemberRoutes(router *mux.Router, s *app.Services) {
	protectedRouter := router.PathPrefix("/members").Subrouter()
	protectedRouter.Use(middleware.AuthMiddleware(s.Tokens), middleware.ResponseWrapperMiddleware)
	protectedRouter.HandleFunc("/", s.Members.GetMembers).Methods(http.MethodGet)
}
