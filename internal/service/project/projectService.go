package projectService

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/nikhil/orgchart/internal/apperrors"
	"github.com/nikhil/orgchart/internal/cache"
	"github.com/nikhil/orgchart/internal/logger"
	"github.com/nikhil/orgchart/internal/middleware"
	projectmodels "github.com/nikhil/orgchart/internal/models/projects"
	"github.com/nikhil/orgchart/internal/repository"
	"github.com/nikhil/orgchart/internal/response"
	"github.com/nikhil/orgchart/internal/validator"
)

// PerPage is the page size of the project list.
const PerPage = 10

// Store is the persistence the project service needs.
type Store interface {
	repository.ProjectRepository
	repository.TeamRepository
	repository.MemberRepository
}

// ProjectService handles project-related operations
type ProjectService struct {
	Store       Store
	Invalidator *cache.Invalidator
	Log         *logger.Logger
	now         func() time.Time
}

// CreateProjectRequest represents the request body for project creation
type CreateProjectRequest struct {
	Name        string                `json:"name" validate:"required,max=100"`
	Description string                `json:"description" validate:"max=1000"`
	Status      *projectmodels.Status `json:"status"`
	Started     *projectmodels.Date   `json:"started" validate:"required"`
	Ended       *projectmodels.Date   `json:"ended" validate:"required"`
}

// UpdateProjectRequest represents a partial project update. Started may be
// sent back unchanged but never altered.
type UpdateProjectRequest struct {
	Name        *string             `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string             `json:"description" validate:"omitempty,max=1000"`
	Started     *projectmodels.Date `json:"started"`
	Ended       *projectmodels.Date `json:"ended"`
}

// ChangeStatusRequest sets the lifecycle status.
type ChangeStatusRequest struct {
	Status projectmodels.Status `json:"status" validate:"required"`
}

// TeamRequest names a team to attach or detach.
type TeamRequest struct {
	TeamID int64 `json:"team_id" validate:"required"`
}

// NewProjectService initializes a new project service
func NewProjectService(store Store, c cache.CacheInterface, log *logger.Logger) *ProjectService {
	return &ProjectService{
		Store:       store,
		Invalidator: cache.NewInvalidator(c, log),
		Log:         log,
		now:         time.Now,
	}
}

func (ps *ProjectService) today() projectmodels.Date {
	return projectmodels.NewDate(ps.now())
}

func (ps *ProjectService) managed(ctx context.Context, actor middleware.Identity, projectID int64) (*projectmodels.Project, error) {
	project, err := ps.Store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff && actor.UserID != project.OwnerID {
		return nil, apperrors.ErrPermissionDenied
	}
	return project, nil
}

// Create validates and stores a new project owned by actor.
func (ps *ProjectService) Create(ctx context.Context, actor middleware.Identity, req CreateProjectRequest) (*projectmodels.Project, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	fields := apperrors.FieldErrors{}
	status := projectmodels.StatusNotStarted
	if req.Status != nil {
		status = *req.Status
		if !status.Valid() {
			fields.Add("status", "Unknown status.")
		}
	}
	if req.Started.Before(ps.today().Time) {
		fields.Add("started", "Start date cannot be in the past.")
	}
	if req.Ended.Before(req.Started.Time) {
		fields.Add("ended", "End date cannot be earlier than start date.")
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	project := &projectmodels.Project{
		Name:        req.Name,
		OwnerID:     actor.UserID,
		Status:      status,
		Description: req.Description,
		Started:     *req.Started,
		Ended:       *req.Ended,
	}
	if err := ps.Store.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	ps.Log.WithContext(ctx).WithUser(actor.UserID).Audit("Project created", "project_id", project.ID)
	return project, nil
}

// Update applies a partial update. The start date is immutable.
func (ps *ProjectService) Update(ctx context.Context, actor middleware.Identity, projectID int64, req UpdateProjectRequest) (*projectmodels.Project, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	project, err := ps.managed(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}

	fields := apperrors.FieldErrors{}
	if req.Started != nil && !req.Started.Equal(project.Started.Time) {
		fields.Add("started", "Start date cannot be changed.")
	}
	if req.Ended != nil {
		if req.Ended.Before(project.Started.Time) {
			fields.Add("ended", "End date cannot be earlier than start date.")
		}
		project.Ended = *req.Ended
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}
	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}

	// Save changes
	if err := ps.Store.UpdateProject(ctx, project); err != nil {
		return nil, err
	}
	ps.projectChanged(ctx, project)
	ps.Log.WithContext(ctx).WithUser(actor.UserID).Audit("Project updated", "project_id", projectID)
	return project, nil
}

// ChangeStatus moves a project to another lifecycle status.
func (ps *ProjectService) ChangeStatus(ctx context.Context, actor middleware.Identity, projectID int64, status projectmodels.Status) (*projectmodels.Project, error) {
	if !status.Valid() {
		return nil, apperrors.Field("status", "Unknown status.")
	}
	project, err := ps.managed(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if err := ps.Store.UpdateStatus(ctx, projectID, status); err != nil {
		return nil, err
	}
	project.Status = status
	ps.Log.WithContext(ctx).WithUser(actor.UserID).Audit("Project status changed", "project_id", projectID, "status", status.String())
	return project, nil
}

// SetTeam attaches or detaches a team.
func (ps *ProjectService) SetTeam(ctx context.Context, actor middleware.Identity, projectID, teamID int64, attach bool) (*projectmodels.Project, error) {
	project, err := ps.managed(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	// Check the team exists
	if _, err := ps.Store.GetTeam(ctx, teamID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Field("team_id", "Team not found.")
		}
		return nil, err
	}

	if attach {
		err = ps.Store.AttachTeam(ctx, projectID, teamID)
	} else {
		err = ps.Store.DetachTeam(ctx, projectID, teamID)
	}
	if err != nil {
		return nil, err
	}

	ps.invalidateTeam(ctx, teamID)
	ps.Log.WithContext(ctx).WithUser(actor.UserID).Audit("Project teams changed", "project_id", projectID, "team_id", teamID, "attached", attach)
	return ps.Store.GetProject(ctx, project.ID)
}

// projectChanged drops the cached views listing project.
func (ps *ProjectService) projectChanged(ctx context.Context, project *projectmodels.Project) {
	for _, team := range project.Teams {
		ps.invalidateTeam(ctx, team.ID)
	}
	if len(project.Teams) == 0 {
		ps.Invalidator.ProjectChanged(ctx)
	}
}

func (ps *ProjectService) invalidateTeam(ctx context.Context, teamID int64) {
	cards, err := ps.Store.ListMemberCards(ctx, teamID)
	if err != nil {
		ps.Log.WithContext(ctx).Warn("Failed to load team members for invalidation", "team_id", teamID, "error", err)
		ps.Invalidator.ProjectChanged(ctx)
		return
	}
	userIDs := make([]int64, len(cards))
	for i, c := range cards {
		userIDs[i] = c.UserID
	}
	ps.Invalidator.ProjectChanged(ctx, userIDs...)
}

// GetProjects returns a page of projects.
func (ps *ProjectService) GetProjects(w http.ResponseWriter, r *http.Request) {
	// Parse pagination parameters
	page := response.PageNumber(r)
	projects, total, err := ps.Store.ListProjects(r.Context(), PerPage, response.Offset(page, PerPage))
	if err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, response.NewPage(projects, total, page, PerPage))
}

// CreateProject handles the creation of a new project
func (ps *ProjectService) CreateProject(w http.ResponseWriter, r *http.Request) {
	// Get user identity from context
	actor, _ := middleware.CurrentUser(r.Context())

	// Parse request body
	var req CreateProjectRequest
	if err := response.Decode(r, &req); err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}
	project, err := ps.Create(r.Context(), actor, req)
	if err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}
	response.JSON(w, http.StatusCreated, project)
}

// GetProject returns a project with its teams.
func (ps *ProjectService) GetProject(w http.ResponseWriter, r *http.Request) {
	// Get project ID from URL
	projectID, err := response.PathID(mux.Vars(r), "id")
	if err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}
	project, err := ps.Store.GetProject(r.Context(), projectID)
	if err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, project)
}

// UpdateProject handles partial project updates
func (ps *ProjectService) UpdateProject(w http.ResponseWriter, r *http.Request) {
	// Get user identity from context
	actor, _ := middleware.CurrentUser(r.Context())
	// Get project ID from URL
	projectID, err := response.PathID(mux.Vars(r), "id")
	if err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}

	// Parse request body
	var req UpdateProjectRequest
	if err := response.Decode(r, &req); err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}
	project, err := ps.Update(r.Context(), actor, projectID, req)
	if err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, project)
}

// ChangeProjectStatus handles status changes.
func (ps *ProjectService) ChangeProjectStatus(w http.ResponseWriter, r *http.Request) {
	// Get user identity from context
	actor, _ := middleware.CurrentUser(r.Context())
	// Get project ID from URL
	projectID, err := response.PathID(mux.Vars(r), "id")
	if err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}

	// Parse request body
	var req ChangeStatusRequest
	if err := response.Decode(r, &req); err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}
	project, err := ps.ChangeStatus(r.Context(), actor, projectID, req.Status)
	if err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, project)
}

// UpdateTeam attaches (PUT) or detaches (DELETE) a team.
func (ps *ProjectService) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	// Get user identity from context
	actor, _ := middleware.CurrentUser(r.Context())
	// Get project ID from URL
	projectID, err := response.PathID(mux.Vars(r), "id")
	if err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}

	// Parse request body
	var req TeamRequest
	if err := response.Decode(r, &req); err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}
	// PUT attaches the team, DELETE detaches it
	project, err := ps.SetTeam(r.Context(), actor, projectID, req.TeamID, r.Method == http.MethodPut)
	if err != nil {
		response.WriteError(w, r, ps.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, project)
}
