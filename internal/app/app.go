// Package app assembles the services behind the HTTP routes.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nikhil/orgchart/internal/cache"
	"github.com/nikhil/orgchart/internal/config"
	"github.com/nikhil/orgchart/internal/handlers"
	"github.com/nikhil/orgchart/internal/logger"
	"github.com/nikhil/orgchart/internal/models"
	"github.com/nikhil/orgchart/internal/repository/mysql"
	services "github.com/nikhil/orgchart/internal/service/auth"
	filterService "github.com/nikhil/orgchart/internal/service/filters"
	memberService "github.com/nikhil/orgchart/internal/service/members"
	projectService "github.com/nikhil/orgchart/internal/service/project"
	teamService "github.com/nikhil/orgchart/internal/service/team"
	profileService "github.com/nikhil/orgchart/internal/service/users"
)

// Services holds everything the route modules register.
type Services struct {
	Tokens    *services.Tokens
	Hub       *models.Hub
	Auth      *handlers.AuthHandler
	WebSocket *handlers.WebSocketHandler
	Teams     *teamService.TeamService
	Projects  *projectService.ProjectService
	Members   *memberService.MemberService
	Profiles  *profileService.ProfileService
	Filters   *filterService.FilterService
	Log       *logger.Logger
}

// NewCache picks Redis when an address is configured and the in-process
// store otherwise.
func NewCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (cache.CacheInterface, error) {
	if cfg.RedisAddr == "" {
		log.Info("Using in-process cache")
		return cache.NewMemoryCache()
	}
	c, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("connect cache: %w", err)
	}
	log.Info("Using redis cache", "addr", cfg.RedisAddr)
	return c, nil
}

// NewServices wires the services over db and c.
func NewServices(cfg *config.Config, db *sql.DB, c cache.CacheInterface) *Services {
	repo := mysql.New(db)
	tokens := services.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	hub := models.NewHub(logger.NewLogger("realtime"))

	return &Services{
		Tokens:    tokens,
		Hub:       hub,
		Auth:      handlers.NewAuthHandler(services.NewAuthService(repo, tokens), logger.NewLogger("auth-service")),
		WebSocket: handlers.NewWebSocketHandler(hub, repo, logger.NewLogger("realtime")),
		Teams:     teamService.NewTeamService(repo, c, hub, logger.NewLogger("team-service"), cfg.MaxDeepSubordinates),
		Projects:  projectService.NewProjectService(repo, c, logger.NewLogger("project-service")),
		Members:   memberService.NewMemberService(repo, c, logger.NewLogger("member-service")),
		Profiles:  profileService.NewProfileService(repo, c, logger.NewLogger("profile-service"), cfg.MediaDir),
		Filters:   filterService.NewFilterService(repo, c, logger.NewLogger("filter-service")),
		Log:       logger.NewLogger("http"),
	}
}
