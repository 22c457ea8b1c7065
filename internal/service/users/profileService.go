package profileService

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/nikhil/orgchart/internal/apperrors"
	"github.com/nikhil/orgchart/internal/cache"
	"github.com/nikhil/orgchart/internal/logger"
	"github.com/nikhil/orgchart/internal/middleware"
	teammodels "github.com/nikhil/orgchart/internal/models/teams"
	models "github.com/nikhil/orgchart/internal/models/users"
	"github.com/nikhil/orgchart/internal/repository"
	"github.com/nikhil/orgchart/internal/response"
	"github.com/nikhil/orgchart/internal/validator"
	"github.com/nikhil/orgchart/pkg/utils"
)

// PerPage is the page size of the user list.
const PerPage = 24

type ProfileService struct {
	Users       repository.UserRepository
	Cache       cache.CacheInterface
	Invalidator *cache.Invalidator
	Log         *logger.Logger
	MediaDir    string
}

// UserView is a user with their profile.
type UserView struct {
	ID       int64          `json:"id"`
	Email    string         `json:"email"`
	FullName string         `json:"full_name"`
	Image    string         `json:"image"`
	Profile  models.Profile `json:"profile"`
}

// UserDetail adds the projects of the user's teams.
type UserDetail struct {
	UserView
	Projects []teammodels.ProjectShort `json:"projects"`
}

// CreateUserRequest is accepted from staff only.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// UpdateProfileRequest is a partial update of the caller's user and profile.
type UpdateProfileRequest struct {
	FirstName  *string `json:"first_name" validate:"omitempty,max=150"`
	LastName   *string `json:"last_name" validate:"omitempty,max=150"`
	MiddleName *string `json:"middle_name" validate:"omitempty,max=150"`
	Bio        *string `json:"bio" validate:"omitempty,max=1000"`
	Birthday   *string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	TimeZone   *int    `json:"time_zone" validate:"omitempty,gte=-12,lte=14"`
	Position   *string `json:"position" validate:"omitempty,max=100"`
	Telegram   *string `json:"telegram" validate:"omitempty,max=64,telegram"`
	Phone      *string `json:"phone" validate:"omitempty,phone"`
	City       *string `json:"city" validate:"omitempty,max=100"`
}

// AvatarRequest carries a base64 encoded image.
type AvatarRequest struct {
	Image string `json:"image" validate:"required"`
}

func NewProfileService(users repository.UserRepository, c cache.CacheInterface, log *logger.Logger, mediaDir string) *ProfileService {
	return &ProfileService{
		Users:       users,
		Cache:       c,
		Invalidator: cache.NewInvalidator(c, log),
		Log:         log,
		MediaDir:    mediaDir,
	}
}

func (profile *ProfileService) cacheError(ctx context.Context) func(string, error) {
	return func(key string, err error) {
		profile.Log.WithContext(ctx).Warn("Cache unavailable", "key", key, "error", err)
	}
}

func (profile *ProfileService) view(ctx context.Context, userID int64) (*UserView, error) {
	user, err := profile.Users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := profile.Users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserView{ID: user.UserID, Email: user.Email, FullName: user.FullName(), Image: user.Image, Profile: *p}, nil
}

// Detail returns a user with their profile and projects.
func (profile *ProfileService) Detail(ctx context.Context, userID int64) (*UserDetail, error) {
	view, err := profile.view(ctx, userID)
	if err != nil {
		return nil, err
	}
	projects, err := cache.Remember(ctx, profile.Cache, cache.UserProjectsKey(userID), func(ctx context.Context) ([]teammodels.ProjectShort, error) {
		return profile.Users.ListUserProjects(ctx, userID)
	}, profile.cacheError(ctx))
	if err != nil {
		return nil, err
	}
	return &UserDetail{UserView: *view, Projects: projects}, nil
}

// Create registers a user with an empty profile. Staff only.
func (profile *ProfileService) Create(ctx context.Context, actor middleware.Identity, req CreateUserRequest) (*models.User, error) {
	if !actor.IsStaff {
		return nil, apperrors.ErrPermissionDenied
	}
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Email: strings.ToLower(strings.TrimSpace(req.Email)), Password: hash, IsActive: true}
	if err := profile.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Field("email", "User with this email already exists.")
		}
		return nil, err
	}
	user.Password = ""
	profile.Log.WithContext(ctx).WithUser(actor.UserID).Audit("User created", "created_user_id", user.UserID)
	return user, nil
}

// UpdateMe applies a partial profile update for the caller.
func (profile *ProfileService) UpdateMe(ctx context.Context, actor middleware.Identity, req UpdateProfileRequest) (*UserView, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	update := models.ProfileUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
		Bio:        req.Bio,
		TimeZone:   req.TimeZone,
		Position:   req.Position,
		Telegram:   req.Telegram,
		Phone:      req.Phone,
		City:       req.City,
	}
	// An empty birthday clears it, like telegram and phone
	if req.Birthday != nil && *req.Birthday == "" {
		update.ClearBirthday = true
	} else if req.Birthday != nil {
		birthday, err := time.Parse(time.DateOnly, *req.Birthday)
		if err != nil {
			return nil, apperrors.Field("birthday", "Date must be YYYY-MM-DD.")
		}
		update.Birthday = &birthday
	}

	if err := profile.Users.UpdateProfile(ctx, actor.UserID, update); err != nil {
		return nil, err
	}

	if req.City != nil {
		profile.addToSet(ctx, cache.KeyCities, *req.City)
	}
	if req.Position != nil {
		profile.addToSet(ctx, cache.KeyPositions, *req.Position)
	}
	if req.FirstName != nil || req.LastName != nil || req.MiddleName != nil || req.Position != nil || req.City != nil {
		profile.userChanged(ctx, actor.UserID)
	}
	return profile.view(ctx, actor.UserID)
}

// UpdateAvatar stores a new avatar for the caller.
func (profile *ProfileService) UpdateAvatar(ctx context.Context, actor middleware.Identity, raw string) (string, error) {
	data, ext, err := decodeAvatar(raw)
	if err != nil {
		return "", err
	}
	path, err := saveAvatar(profile.MediaDir, data, ext)
	if err != nil {
		return "", err
	}
	if err := profile.Users.UpdateAvatar(ctx, actor.UserID, path); err != nil {
		return "", err
	}
	profile.userChanged(ctx, actor.UserID)
	return path, nil
}

// Cities returns the sorted distinct cities of all profiles.
func (profile *ProfileService) Cities(ctx context.Context) ([]string, error) {
	return cache.Remember(ctx, profile.Cache, cache.KeyCities, profile.Users.ListCities, profile.cacheError(ctx))
}

func (profile *ProfileService) addToSet(ctx context.Context, key, value string) {
	if err := cache.AddToSet(ctx, profile.Cache, key, value); err != nil {
		profile.Log.WithContext(ctx).Warn("Failed to update cached set", "key", key, "error", err)
	}
}

func (profile *ProfileService) userChanged(ctx context.Context, userID int64) {
	teamIDs, err := profile.Users.ListUserTeamIDs(ctx, userID)
	if err != nil {
		profile.Log.WithContext(ctx).Warn("Failed to load user teams for invalidation", "user_id", userID, "error", err)
	}
	profile.Invalidator.UserChanged(ctx, teamIDs...)
}

// GetUsers returns a page of the user directory.
func (profile *ProfileService) GetUsers(w http.ResponseWriter, r *http.Request) {
	page := response.PageNumber(r)
	users, total, err := profile.Users.ListUsers(r.Context(), PerPage, response.Offset(page, PerPage))
	if err != nil {
		response.WriteError(w, r, profile.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, response.NewPage(users, total, page, PerPage))
}

// CreateUser handles user creation by staff.
func (profile *ProfileService) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.CurrentUser(r.Context())

	var req CreateUserRequest
	if err := response.Decode(r, &req); err != nil {
		response.WriteError(w, r, profile.Log, err)
		return
	}
	user, err := profile.Create(r.Context(), actor, req)
	if err != nil {
		response.WriteError(w, r, profile.Log, err)
		return
	}
	response.JSON(w, http.StatusCreated, map[string]string{"email": user.Email})
}

// GetUser returns any user with their projects.
func (profile *ProfileService) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := response.PathID(mux.Vars(r), "id")
	if err != nil {
		response.WriteError(w, r, profile.Log, err)
		return
	}
	detail, err := profile.Detail(r.Context(), userID)
	if err != nil {
		response.WriteError(w, r, profile.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, detail)
}

func (profile *ProfileService) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.CurrentUser(r.Context())
	detail, err := profile.Detail(r.Context(), actor.UserID)
	if err != nil {
		response.WriteError(w, r, profile.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, detail)
}

func (profile *ProfileService) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.CurrentUser(r.Context())

	var req UpdateProfileRequest
	if err := response.Decode(r, &req); err != nil {
		response.WriteError(w, r, profile.Log, err)
		return
	}
	view, err := profile.UpdateMe(r.Context(), actor, req)
	if err != nil {
		response.WriteError(w, r, profile.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, view)
}

// ChangeAvatar handles avatar uploads for the caller.
func (profile *ProfileService) ChangeAvatar(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.CurrentUser(r.Context())

	var req AvatarRequest
	if err := response.Decode(r, &req); err != nil {
		response.WriteError(w, r, profile.Log, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		response.WriteError(w, r, profile.Log, err)
		return
	}
	path, err := profile.UpdateAvatar(r.Context(), actor, req.Image)
	if err != nil {
		response.WriteError(w, r, profile.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"image": path})
}

// GetCities lists the known cities.
func (profile *ProfileService) GetCities(w http.ResponseWriter, r *http.Request) {
	cities, err := profile.Cities(r.Context())
	if err != nil {
		response.WriteError(w, r, profile.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, cities)
}
