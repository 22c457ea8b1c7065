package apperrors

import (
	"errors"
	"sort"
	"strings"
)

// ErrPermissionDenied is returned when the caller is neither the owner of
// the object nor staff.
var ErrPermissionDenied = errors.New("you do not have permission to perform this action")

// FieldErrors collects per-field validation messages.
type FieldErrors map[string][]string

// Add records msg against field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Err returns f as an error, or nil when nothing was recorded.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(f[field], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Field returns a single-field validation error.
func Field(field, msg string) error {
	return FieldErrors{field: {msg}}
}
