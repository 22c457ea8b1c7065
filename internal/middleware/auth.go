package middleware

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhil/orgchart/internal/logger"
	"github.com/nikhil/orgchart/internal/response"
	services "github.com/nikhil/orgchart/internal/service/auth"
)

type ContextKey string

const UserContextKey ContextKey = "currentUser"

// Identity is the authenticated caller.
type Identity struct {
	UserID  int64
	IsStaff bool
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, UserContextKey, id)
}

// CurrentUser returns the identity set by AuthMiddleware.
func CurrentUser(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(UserContextKey).(Identity)
	return id, ok
}

// TokenParser verifies an access token.
type TokenParser interface {
	Parse(token string) (*services.Claims, error)
}

// AuthMiddleware requires a valid `Authorization: Bearer <token>` header.
func AuthMiddleware(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Error(w, http.StatusUnauthorized, "Missing auth token")
				return
			}
			tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found {
				response.Error(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			authenticate(tokens, tokenStr, next, w, r)
		})
	}
}

// WebSocketAuthMiddleware reads the token from the `token` query parameter,
// since browsers cannot set headers on websocket upgrades.
func WebSocketAuthMiddleware(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := r.URL.Query().Get("token")
			if tokenStr == "" {
				response.Error(w, http.StatusUnauthorized, "Missing auth token")
				return
			}
			authenticate(tokens, tokenStr, next, w, r)
		})
	}
}

func authenticate(tokens TokenParser, tokenStr string, next http.Handler, w http.ResponseWriter, r *http.Request) {
	claims, err := tokens.Parse(tokenStr)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	ctx := WithIdentity(r.Context(), Identity{UserID: claims.UserID, IsStaff: claims.IsStaff})
	next.ServeHTTP(w, r.WithContext(ctx))
}

func ResponseWrapperMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// RequestID tags every request with an id, reusing X-Request-ID when the
// client sends one, and logs the request once it completes.
func RequestID(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)
			ctx := logger.WithRequestID(r.Context(), requestID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))
			log.WithContext(ctx).Debug("Request served", "method", r.Method, "path", r.URL.Path, "status", rec.status)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is needed by the websocket upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}
