package filterRoutes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/orgchart/internal/app"
	"github.com/nikhil/orgchart/internal/middleware"
)

// FilterRoutes registers the public filter values used by the member search.
func FilterRoutes(router *mux.Router, s *app.Services) {
	publicRouter := router.PathPrefix("/filters").Subrouter()
	publicRouter.Use(middleware.ResponseWrapperMiddleware)
	publicRouter.HandleFunc("/", s.Filters.GetFilters).Methods(http.MethodGet)
}
