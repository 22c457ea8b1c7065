package repository

import (
	"context"

	projectmodels "github.com/nikhil/orgchart/internal/models/projects"
	teammodels "github.com/nikhil/orgchart/internal/models/teams"
	models "github.com/nikhil/orgchart/internal/models/users"
	"github.com/nikhil/orgchart/internal/orgtree"
)

// UserRepository persists users and their profiles.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.UserListItem, int, error)
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) error
	UpdateAvatar(ctx context.Context, userID int64, image string) error
	ListUserProjects(ctx context.Context, userID int64) ([]teammodels.ProjectShort, error)
	ListUserTeamIDs(ctx context.Context, userID int64) ([]int64, error)
	ListCities(ctx context.Context) ([]string, error)
	ListPositions(ctx context.Context) ([]string, error)
}

// TeamRepository manages teams.
type TeamRepository interface {
	CreateTeam(ctx context.Context, team *teammodels.Team) error
	GetTeam(ctx context.Context, teamID int64) (*teammodels.Team, error)
	ListTeams(ctx context.Context) ([]teammodels.TeamListItem, error)
	UpdateTeam(ctx context.Context, team *teammodels.Team) error
}

// MemberRepository manages team membership and the reporting structure.
type MemberRepository interface {
	GetMember(ctx context.Context, memberID int64) (*teammodels.Member, error)
	GetMemberByUser(ctx context.Context, teamID, userID int64) (*teammodels.Member, error)
	ListMemberCards(ctx context.Context, teamID int64) ([]teammodels.MemberCard, error)
	ListMembers(ctx context.Context, filter teammodels.MemberFilter) ([]teammodels.MemberListItem, int, error)
	AddMember(ctx context.Context, member *teammodels.Member) error
	TeamVersion(ctx context.Context, teamID int64) (int64, error)
	// Reparent serializes against other writers of the same team, reloads the
	// team's edges, runs validate on them and only then stores the new parent
	// and bumps the team's structure version.
	Reparent(ctx context.Context, teamID, memberID, parentID int64, validate func([]orgtree.Edge) error) error
}

// ProjectRepository persists projects and their team links.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project *projectmodels.Project) error
	GetProject(ctx context.Context, projectID int64) (*projectmodels.Project, error)
	ListProjects(ctx context.Context, limit, offset int) ([]projectmodels.Project, int, error)
	UpdateProject(ctx context.Context, project *projectmodels.Project) error
	UpdateStatus(ctx context.Context, projectID int64, status projectmodels.Status) error
	AttachTeam(ctx context.Context, projectID, teamID int64) error
	DetachTeam(ctx context.Context, projectID, teamID int64) error
}

// DepartmentRepository reads departments.
type DepartmentRepository interface {
	GetDepartment(ctx context.Context, departmentID int64) (*teammodels.Department, error)
	ListDepartmentNames(ctx context.Context) ([]string, error)
}
