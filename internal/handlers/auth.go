package handlers

import (
	"errors"
	"net/http"

	"github.com/nikhil/orgchart/internal/logger"
	"github.com/nikhil/orgchart/internal/response"
	services "github.com/nikhil/orgchart/internal/service/auth"
	"github.com/nikhil/orgchart/internal/validator"
)

type AuthHandler struct {
	Service *services.AuthService
	Log     *logger.Logger
}

// NewAuthHandler creates a new instance of AuthHandler
func NewAuthHandler(service *services.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{Service: service, Log: log}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles the user authentication request
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var credentials loginRequest
	if err := response.Decode(r, &credentials); err != nil {
		response.WriteError(w, r, h.Log, err)
		return
	}
	if err := validator.Validate(credentials); err != nil {
		response.WriteError(w, r, h.Log, err)
		return
	}

	token, user, err := h.Service.Login(r.Context(), credentials.Email, credentials.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		h.Log.WithContext(r.Context()).Info("Login rejected", "email", credentials.Email)
		response.Error(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		response.WriteError(w, r, h.Log, err)
		return
	}

	h.Log.WithContext(r.Context()).WithUser(user.UserID).Audit("User logged in")
	response.JSON(w, http.StatusOK, map[string]interface{}{"token": token, "user_details": user})
}
