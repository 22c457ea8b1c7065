package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nikhil/orgchart/internal/apperrors"
	"github.com/nikhil/orgchart/internal/logger"
	"github.com/nikhil/orgchart/internal/orgtree"
	"github.com/nikhil/orgchart/internal/repository"
)

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// Error writes {"error": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// WriteError maps err onto an HTTP response. Unexpected errors are logged
// and reported as 500 without detail.
func WriteError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var (
		validation *orgtree.ValidationError
		fields     apperrors.FieldErrors
	)
	switch {
	case errors.As(err, &validation):
		log.WithContext(r.Context()).Debug("Validation rejected", "field", validation.Field, "error", validation.Message)
		JSON(w, http.StatusBadRequest, map[string][]string{validation.Field: {validation.Message}})
	case errors.As(err, &fields):
		JSON(w, http.StatusBadRequest, fields)
	case errors.Is(err, repository.ErrNotFound):
		Error(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		Error(w, http.StatusForbidden, apperrors.ErrPermissionDenied.Error())
	case errors.Is(err, repository.ErrConflict):
		Error(w, http.StatusConflict, "Object already exists.")
	default:
		log.WithContext(r.Context()).Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// Decode reads a JSON request body into dst.
func Decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Field("non_field_errors", "Invalid request body.")
	}
	return nil
}

// Page is the pagination envelope of list endpoints.
type Page[T any] struct {
	Count   int `json:"count"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Results []T `json:"results"`
}

// NewPage wraps one page of results.
func NewPage[T any](results []T, count, page, perPage int) Page[T] {
	if results == nil {
		results = []T{}
	}
	return Page[T]{Count: count, Page: page, PerPage: perPage, Results: results}
}

// MaxPage bounds page numbers so the row offset cannot overflow.
const MaxPage = 100000

// PageNumber reads the 1-based `page` query parameter. Missing or invalid
// values mean the first page; larger values are capped at MaxPage.
func PageNumber(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return min(page, MaxPage)
}

// Offset converts a page number to a row offset.
func Offset(page, perPage int) int {
	return (page - 1) * perPage
}

// PathID parses the named mux path variable as a positive integer.
func PathID(vars map[string]string, name string) (int64, error) {
	id, err := strconv.ParseInt(vars[name], 10, 64)
	if err != nil || id < 1 {
		return 0, repository.ErrNotFound
	}
	return id, nil
}
