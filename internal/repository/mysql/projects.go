package mysql

import (
	"context"
	"fmt"
	"time"

	projectmodels "github.com/nikhil/orgchart/internal/models/projects"
	teammodels "github.com/nikhil/orgchart/internal/models/teams"
)

const projectColumns = `id, name, description, owner_id, status, started, ended, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*projectmodels.Project, error) {
	var (
		p              projectmodels.Project
		started, ended time.Time
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.Status, &started, &ended, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Started = projectmodels.NewDate(started)
	p.Ended = projectmodels.NewDate(ended)
	return &p, nil
}

// CreateProject inserts a project.
func (r *Repository) CreateProject(ctx context.Context, project *projectmodels.Project) error {
	currentTime := time.Now().UTC().Unix()
	project.CreatedAt = currentTime
	project.UpdatedAt = currentTime

	const query = `INSERT INTO projects (name, description, owner_id, status, started, ended, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query, project.Name, project.Description, project.OwnerID, project.Status,
		project.Started.Time, project.Ended.Time, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	project.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("project id: %w", err)
	}
	return nil
}

// GetProject returns a project with its teams.
func (r *Repository) GetProject(ctx context.Context, projectID int64) (*projectmodels.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	p, err := scanProject(r.db.QueryRowContext(ctx, query, projectID))
	if err != nil {
		return nil, notFound(err)
	}

	const teamsQuery = `SELECT t.id, t.name FROM teams t
		JOIN project_teams pt ON pt.team_id = t.id
		WHERE pt.project_id = ? ORDER BY t.id`
	rows, err := r.db.QueryContext(ctx, teamsQuery, projectID)
	if err != nil {
		return nil, fmt.Errorf("query project teams: %w", err)
	}
	defer rows.Close()

	p.Teams = []teammodels.TeamShort{}
	for rows.Next() {
		var t teammodels.TeamShort
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan project team: %w", err)
		}
		p.Teams = append(p.Teams, t)
	}
	return p, rows.Err()
}

// ListProjects returns a page of projects, newest first, and the total count.
func (r *Repository) ListProjects(ctx context.Context, limit, offset int) ([]projectmodels.Project, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := []projectmodels.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, total, rows.Err()
}

// UpdateProject stores the mutable fields of a project. The start date is
// never written here.
func (r *Repository) UpdateProject(ctx context.Context, project *projectmodels.Project) error {
	project.UpdatedAt = time.Now().UTC().Unix()
	const query = `UPDATE projects SET name = ?, description = ?, ended = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, project.Name, project.Description, project.Ended.Time, project.UpdatedAt, project.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

// UpdateStatus changes the lifecycle status of a project.
func (r *Repository) UpdateStatus(ctx context.Context, projectID int64, status projectmodels.Status) error {
	const query = `UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, status, time.Now().UTC().Unix(), projectID)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	return nil
}

// AttachTeam links a team to a project. Linking twice is a no-op.
func (r *Repository) AttachTeam(ctx context.Context, projectID, teamID int64) error {
	const query = `INSERT IGNORE INTO project_teams (project_id, team_id) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, query, projectID, teamID); err != nil {
		return fmt.Errorf("attach team: %w", err)
	}
	return nil
}

// DetachTeam removes the link between a team and a project.
func (r *Repository) DetachTeam(ctx context.Context, projectID, teamID int64) error {
	const query = `DELETE FROM project_teams WHERE project_id = ? AND team_id = ?`
	if _, err := r.db.ExecContext(ctx, query, projectID, teamID); err != nil {
		return fmt.Errorf("detach team: %w", err)
	}
	return nil
}
