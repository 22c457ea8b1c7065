package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nikhil/orgchart/internal/database"
	teammodels "github.com/nikhil/orgchart/internal/models/teams"
	"github.com/nikhil/orgchart/internal/orgtree"
	"github.com/nikhil/orgchart/internal/repository"
)

// GetMember returns a member by identifier.
func (r *Repository) GetMember(ctx context.Context, memberID int64) (*teammodels.Member, error) {
	const query = `SELECT id, team_id, user_id, parent_id, department_id FROM members WHERE id = ?`
	return r.scanMember(r.db.QueryRowContext(ctx, query, memberID))
}

// GetMemberByUser returns the membership of userID in teamID.
func (r *Repository) GetMemberByUser(ctx context.Context, teamID, userID int64) (*teammodels.Member, error) {
	const query = `SELECT id, team_id, user_id, parent_id, department_id FROM members WHERE team_id = ? AND user_id = ?`
	return r.scanMember(r.db.QueryRowContext(ctx, query, teamID, userID))
}

func (r *Repository) scanMember(row *sql.Row) (*teammodels.Member, error) {
	var (
		m                    teammodels.Member
		parentID, department sql.NullInt64
	)
	if err := row.Scan(&m.ID, &m.TeamID, &m.UserID, &parentID, &department); err != nil {
		return nil, notFound(err)
	}
	m.ParentID = int64Ptr(parentID)
	m.DepartmentID = int64Ptr(department)
	return &m, nil
}

// ListMemberCards returns the renderable members of a team. Members of
// deactivated users are skipped, except the team owner.
func (r *Repository) ListMemberCards(ctx context.Context, teamID int64) ([]teammodels.MemberCard, error) {
	const query = `
		SELECT m.id, m.parent_id, m.user_id, u.last_name, u.first_name, u.middle_name, u.image,
			COALESCE(p.position, ''), COALESCE(d.name, '')
		FROM members m
		JOIN teams t ON t.id = m.team_id
		JOIN users u ON u.id = m.user_id
		LEFT JOIN profiles p ON p.user_id = u.id
		LEFT JOIN departments d ON d.id = m.department_id
		WHERE m.team_id = ? AND (u.is_active = TRUE OR u.id = t.owner_id)
		ORDER BY m.id
	`
	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("query member cards: %w", err)
	}
	defer rows.Close()

	cards := []teammodels.MemberCard{}
	for rows.Next() {
		var (
			c                   teammodels.MemberCard
			parentID            sql.NullInt64
			last, first, middle string
		)
		if err := rows.Scan(&c.ID, &parentID, &c.UserID, &last, &first, &middle, &c.Image, &c.Position, &c.Department); err != nil {
			return nil, fmt.Errorf("scan member card: %w", err)
		}
		c.ParentID = int64Ptr(parentID)
		c.FullName = fullName(last, first, middle)
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListMembers returns a filtered page of the member directory and the total
// number of matching rows.
func (r *Repository) ListMembers(ctx context.Context, filter teammodels.MemberFilter) ([]teammodels.MemberListItem, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.City != "" {
		where = append(where, "LOWER(p.city) = LOWER(?)")
		args = append(args, filter.City)
	}
	if filter.Position != "" {
		where = append(where, "LOWER(p.position) = LOWER(?)")
		args = append(args, filter.Position)
	}
	if filter.DepartmentID != 0 {
		where = append(where, "m.department_id = ?")
		args = append(args, filter.DepartmentID)
	}
	if filter.Search != "" {
		prefix := likeEscaper.Replace(filter.Search) + "%"
		where = append(where, "(u.first_name LIKE ? OR u.last_name LIKE ? OR u.middle_name LIKE ?)")
		args = append(args, prefix, prefix, prefix)
	}

	from := `
		FROM members m
		JOIN users u ON u.id = m.user_id
		LEFT JOIN profiles p ON p.user_id = u.id
		LEFT JOIN departments d ON d.id = m.department_id
	`
	if len(where) > 0 {
		from += " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}

	query := `SELECT m.id, u.last_name, u.first_name, u.middle_name,
			COALESCE(d.name, ''), COALESCE(p.position, ''), COALESCE(p.city, '')` + from + `
		ORDER BY m.id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := []teammodels.MemberListItem{}
	for rows.Next() {
		var (
			m                   teammodels.MemberListItem
			last, first, middle string
		)
		if err := rows.Scan(&m.ID, &last, &first, &middle, &m.Department, &m.Position, &m.City); err != nil {
			return nil, 0, fmt.Errorf("scan member: %w", err)
		}
		m.FullName = fullName(last, first, middle)
		members = append(members, m)
	}
	return members, total, rows.Err()
}

// AddMember inserts a new membership and bumps the team's structure version.
func (r *Repository) AddMember(ctx context.Context, member *teammodels.Member) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const query = `INSERT INTO members (team_id, user_id, parent_id, department_id) VALUES (?, ?, ?, ?)`
		result, err := tx.ExecContext(ctx, query, member.TeamID, member.UserID, nullInt64(member.ParentID), nullInt64(member.DepartmentID))
		if err != nil {
			if isDuplicate(err) {
				return repository.ErrConflict
			}
			return fmt.Errorf("insert member: %w", err)
		}
		member.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("member id: %w", err)
		}
		return bumpStructureVersion(ctx, tx, member.TeamID)
	})
}

// TeamVersion returns the structure version of a team. It changes whenever
// a member is added or re-parented.
func (r *Repository) TeamVersion(ctx context.Context, teamID int64) (int64, error) {
	var version int64
	err := r.db.QueryRowContext(ctx, `SELECT structure_version FROM teams WHERE id = ?`, teamID).Scan(&version)
	if err != nil {
		return 0, notFound(err)
	}
	return version, nil
}

func bumpStructureVersion(ctx context.Context, tx *sql.Tx, teamID int64) error {
	const query = `UPDATE teams SET structure_version = structure_version + 1 WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, teamID); err != nil {
		return fmt.Errorf("bump structure version: %w", err)
	}
	return nil
}

// Reparent moves memberID under parentID. The team row is locked first so
// concurrent re-parents of one team run one after another, and the edges
// are validated as they are inside the transaction, not from any cache.
func (r *Repository) Reparent(ctx context.Context, teamID, memberID, parentID int64, validate func([]orgtree.Edge) error) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var locked int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM teams WHERE id = ? FOR UPDATE`, teamID).Scan(&locked)
		if err != nil {
			return notFound(err)
		}

		rows, err := tx.QueryContext(ctx, `SELECT id, parent_id FROM members WHERE team_id = ?`, teamID)
		if err != nil {
			return fmt.Errorf("query edges: %w", err)
		}
		edges := []orgtree.Edge{}
		for rows.Next() {
			var (
				e      orgtree.Edge
				parent sql.NullInt64
			)
			if err := rows.Scan(&e.ID, &parent); err != nil {
				rows.Close()
				return fmt.Errorf("scan edge: %w", err)
			}
			e.ParentID = int64Ptr(parent)
			edges = append(edges, e)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate edges: %w", err)
		}

		if err := validate(edges); err != nil {
			return err
		}

		const update = `UPDATE members SET parent_id = ? WHERE id = ? AND team_id = ?`
		if _, err := tx.ExecContext(ctx, update, parentID, memberID, teamID); err != nil {
			return fmt.Errorf("update parent: %w", err)
		}
		return bumpStructureVersion(ctx, tx, teamID)
	})
}
