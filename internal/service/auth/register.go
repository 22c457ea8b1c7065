package services

import (
	"context"
	"errors"
	"strings"

	models "github.com/nikhil/orgchart/internal/models/users"
	"github.com/nikhil/orgchart/internal/repository"
	"github.com/nikhil/orgchart/pkg/utils"
)

// ErrInvalidCredentials is returned by Login for unknown emails, wrong
// passwords and deactivated users alike.
var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService struct {
	Users  repository.UserRepository
	Tokens *Tokens
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(users repository.UserRepository, tokens *Tokens) *AuthService {
	return &AuthService{Users: users, Tokens: tokens}
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.Users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !user.IsActive {
		return "", nil, ErrInvalidCredentials
	}
	if err := utils.CheckPassword(user.Password, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.Tokens.GenerateJWT(user.UserID, user.Email, user.IsStaff)
	if err != nil {
		return "", nil, err
	}
	user.Password = ""
	return token, user, nil
}
