package teamService

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/orgchart/internal/apperrors"
	"github.com/nikhil/orgchart/internal/cache"
	"github.com/nikhil/orgchart/internal/logger"
	"github.com/nikhil/orgchart/internal/middleware"
	"github.com/nikhil/orgchart/internal/models"
	teammodels "github.com/nikhil/orgchart/internal/models/teams"
	"github.com/nikhil/orgchart/internal/orgtree"
	"github.com/nikhil/orgchart/internal/repository"
	"github.com/nikhil/orgchart/internal/response"
	"github.com/nikhil/orgchart/internal/validator"
)

// Store is the persistence the team service needs.
type Store interface {
	repository.TeamRepository
	repository.MemberRepository
	repository.UserRepository
	repository.DepartmentRepository
}

// Broadcaster pushes structure changes to live clients.
type Broadcaster interface {
	BroadcastToTeam(event models.Event)
}

// TeamService handles team-related operations
type TeamService struct {
	Store       Store
	Cache       cache.CacheInterface
	Invalidator *cache.Invalidator
	Hub         Broadcaster
	Log         *logger.Logger
	MaxDepth    int
}

// CreateTeamRequest represents the request body for team creation
type CreateTeamRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// UpdateTeamRequest represents the request body for team updates
type UpdateTeamRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// ChangeEmployeeRequest moves a member under a new parent.
type ChangeEmployeeRequest struct {
	MemberID int64 `json:"member_id" validate:"required"`
	ParentID int64 `json:"parent_id" validate:"required"`
}

// AddMemberRequest adds a user to a team.
type AddMemberRequest struct {
	UserID       int64  `json:"user_id" validate:"required"`
	ParentID     *int64 `json:"parent_id"`
	DepartmentID *int64 `json:"department_id"`
}

// TeamDetail is a team with its rendered structure. Employees is null when
// the owner has no membership in the team.
type TeamDetail struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Owner       int64         `json:"owner"`
	Description string        `json:"description"`
	Employees   *orgtree.Tree `json:"employees"`
}

// cachedCard keeps the parent pointer that MemberCard hides from clients.
type cachedCard struct {
	Card     teammodels.MemberCard `json:"card"`
	ParentID *int64                `json:"parent_id"`
}

// NewTeamService initializes a new team service
func NewTeamService(store Store, c cache.CacheInterface, hub Broadcaster, log *logger.Logger, maxDepth int) *TeamService {
	return &TeamService{
		Store:       store,
		Cache:       c,
		Invalidator: cache.NewInvalidator(c, log),
		Hub:         hub,
		Log:         log,
		MaxDepth:    maxDepth,
	}
}

func canManage(actor middleware.Identity, ownerID int64) bool {
	return actor.IsStaff || actor.UserID == ownerID
}

func (ts *TeamService) cacheError(ctx context.Context) func(string, error) {
	return func(key string, err error) {
		ts.Log.WithContext(ctx).Warn("Cache unavailable", "key", key, "error", err)
	}
}

// List returns every team with its short project list.
func (ts *TeamService) List(ctx context.Context) ([]teammodels.TeamListItem, error) {
	return cache.Remember(ctx, ts.Cache, cache.KeyTeams, ts.Store.ListTeams, ts.cacheError(ctx))
}

func (ts *TeamService) team(ctx context.Context, teamID int64) (*teammodels.Team, error) {
	return cache.Remember(ctx, ts.Cache, cache.TeamKey(teamID), func(ctx context.Context) (*teammodels.Team, error) {
		return ts.Store.GetTeam(ctx, teamID)
	}, ts.cacheError(ctx))
}

// memberCards serves the team's cards from cache only when they were loaded
// at the team's current structure version.
func (ts *TeamService) memberCards(ctx context.Context, teamID int64) ([]teammodels.MemberCard, error) {
	// Read the version before the cards
	version, err := ts.Store.TeamVersion(ctx, teamID)
	if err != nil {
		return nil, err
	}
	entries, err := cache.RememberVersion(ctx, ts.Cache, cache.TeamMembersKey(teamID), version, func(ctx context.Context) ([]cachedCard, error) {
		cards, err := ts.Store.ListMemberCards(ctx, teamID)
		if err != nil {
			return nil, err
		}
		entries := make([]cachedCard, len(cards))
		for i, c := range cards {
			entries[i] = cachedCard{Card: c, ParentID: c.ParentID}
		}
		return entries, nil
	}, ts.cacheError(ctx))
	if err != nil {
		return nil, err
	}

	cards := make([]teammodels.MemberCard, len(entries))
	for i, e := range entries {
		cards[i] = e.Card
		cards[i].ParentID = e.ParentID
	}
	return cards, nil
}

// Detail renders a team with its structure down to depth levels.
func (ts *TeamService) Detail(ctx context.Context, teamID int64, depth int) (*TeamDetail, error) {
	team, err := ts.team(ctx, teamID)
	if err != nil {
		return nil, err
	}
	cards, err := ts.memberCards(ctx, teamID)
	if err != nil {
		return nil, err
	}

	detail := &TeamDetail{
		ID:          team.ID,
		Name:        team.Name,
		Owner:       team.OwnerID,
		Description: team.Description,
	}

	edges := make([]orgtree.Edge, len(cards))
	for i, c := range cards {
		edges[i] = orgtree.Edge{ID: c.ID, ParentID: c.ParentID}
	}
	if orgtree.HasCycle(edges) {
		ts.Log.WithContext(ctx).Warn("Team structure contains a cycle", "team_id", teamID)
	}

	for _, c := range cards {
		if c.UserID == team.OwnerID {
			tree := orgtree.Build(cards, c, depth)
			detail.Employees = &tree
			return detail, nil
		}
	}
	ts.Log.WithContext(ctx).Warn("Team owner is not a member", "team_id", teamID, "owner", team.OwnerID)
	return detail, nil
}

// Create stores a new team owned by actor.
func (ts *TeamService) Create(ctx context.Context, actor middleware.Identity, req CreateTeamRequest) (*teammodels.Team, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	team := &teammodels.Team{Name: req.Name, OwnerID: actor.UserID, Description: req.Description}
	if err := ts.Store.CreateTeam(ctx, team); err != nil {
		return nil, err
	}
	ts.Invalidator.TeamChanged(ctx, team.ID)
	ts.Log.WithContext(ctx).WithUser(actor.UserID).Audit("Team created", "team_id", team.ID)
	return team, nil
}

// Update changes the name and description of a team.
func (ts *TeamService) Update(ctx context.Context, actor middleware.Identity, teamID int64, req UpdateTeamRequest) (*teammodels.Team, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	team, err := ts.Store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, team.OwnerID) {
		return nil, apperrors.ErrPermissionDenied
	}
	if req.Name != nil {
		team.Name = *req.Name
	}
	if req.Description != nil {
		team.Description = *req.Description
	}
	if err := ts.Store.UpdateTeam(ctx, team); err != nil {
		return nil, err
	}

	ts.Invalidator.TeamChanged(ctx, teamID)
	ts.Hub.BroadcastToTeam(models.Event{Type: models.EventTeamUpdated, TeamID: teamID, ActorID: actor.UserID})
	ts.Log.WithContext(ctx).WithUser(actor.UserID).Audit("Team updated", "team_id", teamID)
	return team, nil
}

// Add makes a user a member of a team, optionally under a parent.
func (ts *TeamService) Add(ctx context.Context, actor middleware.Identity, teamID int64, req AddMemberRequest) (*teammodels.Member, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	team, err := ts.Store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, team.OwnerID) {
		return nil, apperrors.ErrPermissionDenied
	}

	fields := apperrors.FieldErrors{}
	if _, err := ts.Store.GetUserByID(ctx, req.UserID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		fields.Add("user_id", "User not found.")
	}
	if req.DepartmentID != nil {
		if _, err := ts.Store.GetDepartment(ctx, *req.DepartmentID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			fields.Add("department_id", "Department not found.")
		}
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}
	if req.ParentID != nil {
		parent, err := ts.Store.GetMember(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, orgtree.ErrCrossTeamReference
			}
			return nil, err
		}
		if parent.TeamID != teamID {
			return nil, orgtree.ErrCrossTeamReference
		}
	}

	member := &teammodels.Member{TeamID: teamID, UserID: req.UserID, ParentID: req.ParentID, DepartmentID: req.DepartmentID}
	if err := ts.Store.AddMember(ctx, member); err != nil {
		return nil, err
	}

	ts.Invalidator.MembersChanged(ctx, teamID)
	ts.Invalidator.ProjectChanged(ctx, req.UserID)
	ts.Hub.BroadcastToTeam(models.Event{Type: models.EventMemberAdded, TeamID: teamID, MemberID: member.ID, ParentID: member.ParentID, ActorID: actor.UserID})
	ts.Log.WithContext(ctx).WithUser(actor.UserID).Audit("Member added", "team_id", teamID, "member_id", member.ID)
	return member, nil
}

// Reparent moves memberID under parentID within teamID.
func (ts *TeamService) Reparent(ctx context.Context, actor middleware.Identity, teamID, memberID, parentID int64) error {
	if memberID == parentID {
		return orgtree.ErrSelfParenting
	}
	team, err := ts.Store.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if !canManage(actor, team.OwnerID) {
		return apperrors.ErrPermissionDenied
	}

	member, err := ts.Store.GetMember(ctx, memberID)
	if err != nil {
		return err
	}
	parent, err := ts.Store.GetMember(ctx, parentID)
	if err != nil {
		return err
	}
	if member.TeamID != teamID || parent.TeamID != teamID {
		return orgtree.ErrCrossTeamReference
	}

	// Re-check against the committed structure inside the transaction
	err = ts.Store.Reparent(ctx, teamID, memberID, parentID, func(edges []orgtree.Edge) error {
		return orgtree.ValidateReparent(edges, memberID, parentID)
	})
	if err != nil {
		return err
	}

	// Drop cached views and notify watchers
	ts.Invalidator.MembersChanged(ctx, teamID)
	ts.Hub.BroadcastToTeam(models.Event{Type: models.EventMemberReparented, TeamID: teamID, MemberID: memberID, ParentID: &parentID, ActorID: actor.UserID})
	ts.Log.WithContext(ctx).WithUser(actor.UserID).WithFields(map[string]interface{}{
		"team_id":   teamID,
		"member_id": memberID,
		"parent_id": parentID,
	}).Audit("Member reparented")
	return nil
}

// GetTeams lists all teams.
func (ts *TeamService) GetTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := ts.List(r.Context())
	if err != nil {
		response.WriteError(w, r, ts.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, teams)
}

// CreateTeam handles the creation of a new team
func (ts *TeamService) CreateTeam(w http.ResponseWriter, r *http.Request) {
	// Get user identity from context
	actor, _ := middleware.CurrentUser(r.Context())

	// Parse request body
	var req CreateTeamRequest
	if err := response.Decode(r, &req); err != nil {
		response.WriteError(w, r, ts.Log, err)
		return
	}
	team, err := ts.Create(r.Context(), actor, req)
	if err != nil {
		response.WriteError(w, r, ts.Log, err)
		return
	}
	response.JSON(w, http.StatusCreated, team)
}

// GetTeam renders a team and its structure. `deep` bounds the tree depth.
func (ts *TeamService) GetTeam(w http.ResponseWriter, r *http.Request) {
	// Get team ID from URL
	teamID, err := response.PathID(mux.Vars(r), "id")
	if err != nil {
		response.WriteError(w, r, ts.Log, err)
		return
	}
	// Depth falls back to the configured maximum
	depth := orgtree.ClampDepth(r.URL.Query().Get("deep"), ts.MaxDepth)

	detail, err := ts.Detail(r.Context(), teamID, depth)
	if err != nil {
		response.WriteError(w, r, ts.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, detail)
}

// UpdateTeam handles partial team updates
func (ts *TeamService) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	// Get user identity from context
	actor, _ := middleware.CurrentUser(r.Context())
	// Get team ID from URL
	teamID, err := response.PathID(mux.Vars(r), "id")
	if err != nil {
		response.WriteError(w, r, ts.Log, err)
		return
	}

	// Parse request body
	var req UpdateTeamRequest
	if err := response.Decode(r, &req); err != nil {
		response.WriteError(w, r, ts.Log, err)
		return
	}
	team, err := ts.Update(r.Context(), actor, teamID, req)
	if err != nil {
		response.WriteError(w, r, ts.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, team)
}

// AddMember handles adding a user to a team.
func (ts *TeamService) AddMember(w http.ResponseWriter, r *http.Request) {
	// Get user identity from context
	actor, _ := middleware.CurrentUser(r.Context())
	// Get team ID from URL
	teamID, err := response.PathID(mux.Vars(r), "id")
	if err != nil {
		response.WriteError(w, r, ts.Log, err)
		return
	}

	// Parse request body
	var req AddMemberRequest
	if err := response.Decode(r, &req); err != nil {
		response.WriteError(w, r, ts.Log, err)
		return
	}
	member, err := ts.Add(r.Context(), actor, teamID, req)
	if err != nil {
		response.WriteError(w, r, ts.Log, err)
		return
	}
	response.JSON(w, http.StatusCreated, member)
}

// ChangeEmployee handles moving a member under a new parent.
func (ts *TeamService) ChangeEmployee(w http.ResponseWriter, r *http.Request) {
	// Get user identity from context
	actor, _ := middleware.CurrentUser(r.Context())
	// Get team ID from URL
	teamID, err := response.PathID(mux.Vars(r), "id")
	if err != nil {
		response.WriteError(w, r, ts.Log, err)
		return
	}

	// Parse request body
	var req ChangeEmployeeRequest
	if err := response.Decode(r, &req); err != nil {
		response.WriteError(w, r, ts.Log, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		response.WriteError(w, r, ts.Log, err)
		return
	}

	// Validate and store the new parent under the team lock
	if err := ts.Reparent(r.Context(), actor, teamID, req.MemberID, req.ParentID); err != nil {
		response.WriteError(w, r, ts.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, req)
}
