package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nikhil/orgchart/internal/database"
	teammodels "github.com/nikhil/orgchart/internal/models/teams"
)

// CreateTeam inserts a team and registers its owner as the first member.
func (r *Repository) CreateTeam(ctx context.Context, team *teammodels.Team) error {
	currentTime := time.Now().UTC().Unix()
	team.CreatedAt = currentTime
	team.UpdatedAt = currentTime

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO teams (name, owner_id, description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`
		result, err := tx.ExecContext(ctx, query, team.Name, team.OwnerID, team.Description, team.CreatedAt, team.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert team: %w", err)
		}
		team.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("team id: %w", err)
		}

		query = `INSERT INTO members (team_id, user_id, parent_id) VALUES (?, ?, NULL)`
		if _, err := tx.ExecContext(ctx, query, team.ID, team.OwnerID); err != nil {
			return fmt.Errorf("insert owner member: %w", err)
		}
		return nil
	})
}

// GetTeam returns a team by identifier.
func (r *Repository) GetTeam(ctx context.Context, teamID int64) (*teammodels.Team, error) {
	const query = `SELECT id, name, owner_id, description, created_at, updated_at FROM teams WHERE id = ?`
	var t teammodels.Team
	err := r.db.QueryRowContext(ctx, query, teamID).Scan(&t.ID, &t.Name, &t.OwnerID, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// ListTeams returns every team with the projects it is attached to.
func (r *Repository) ListTeams(ctx context.Context) ([]teammodels.TeamListItem, error) {
	const query = `
		SELECT t.id, t.name, p.id, p.name
		FROM teams t
		LEFT JOIN project_teams pt ON pt.team_id = t.id
		LEFT JOIN projects p ON p.id = pt.project_id
		ORDER BY t.id, p.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	teams := []teammodels.TeamListItem{}
	for rows.Next() {
		var (
			teamID      int64
			teamName    string
			projectID   sql.NullInt64
			projectName sql.NullString
		)
		if err := rows.Scan(&teamID, &teamName, &projectID, &projectName); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		if n := len(teams); n == 0 || teams[n-1].ID != teamID {
			teams = append(teams, teammodels.TeamListItem{ID: teamID, Name: teamName, Projects: []teammodels.ProjectShort{}})
		}
		if projectID.Valid {
			last := &teams[len(teams)-1]
			last.Projects = append(last.Projects, teammodels.ProjectShort{ID: projectID.Int64, Name: projectName.String})
		}
	}
	return teams, rows.Err()
}

// UpdateTeam stores the team's name and description.
func (r *Repository) UpdateTeam(ctx context.Context, team *teammodels.Team) error {
	team.UpdatedAt = time.Now().UTC().Unix()
	const query = `UPDATE teams SET name = ?, description = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, team.Name, team.Description, team.UpdatedAt, team.ID)
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// MySQL reports 0 for unchanged rows too, so confirm existence.
		if _, err := r.GetTeam(ctx, team.ID); err != nil {
			return err
		}
	}
	return nil
}
