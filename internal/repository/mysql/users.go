package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nikhil/orgchart/internal/database"
	teammodels "github.com/nikhil/orgchart/internal/models/teams"
	models "github.com/nikhil/orgchart/internal/models/users"
	"github.com/nikhil/orgchart/internal/repository"
)

const userColumns = `id, email, password, first_name, last_name, middle_name, image, is_staff, is_active, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.UserID, &u.Email, &u.Password, &u.FirstName, &u.LastName,
		&u.MiddleName, &u.Image, &u.IsStaff, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user together with an empty profile.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().UTC().Unix()
	}
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const query = `INSERT INTO users (email, password, first_name, last_name, middle_name, image, is_staff, is_active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		result, err := tx.ExecContext(ctx, query, user.Email, user.Password, user.FirstName, user.LastName,
			user.MiddleName, user.Image, user.IsStaff, user.IsActive, user.CreatedAt)
		if err != nil {
			if isDuplicate(err) {
				return repository.ErrConflict
			}
			return fmt.Errorf("insert user: %w", err)
		}
		user.UserID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("user id: %w", err)
		}

		const profileQuery = `INSERT INTO profiles (user_id, bio, time_zone) VALUES (?, '', ?)`
		if _, err := tx.ExecContext(ctx, profileQuery, user.UserID, models.DefaultTimeZone); err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		return nil
	})
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// ListUsers returns a page of users ordered by id and the total count.
func (r *Repository) ListUsers(ctx context.Context, limit, offset int) ([]models.UserListItem, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	const query = `SELECT u.id, u.last_name, u.first_name, u.middle_name, COALESCE(p.position, '')
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		ORDER BY u.id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []models.UserListItem{}
	for rows.Next() {
		var (
			u                   models.UserListItem
			last, first, middle string
		)
		if err := rows.Scan(&u.ID, &last, &first, &middle, &u.Position); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		u.FullName = fullName(last, first, middle)
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// GetProfile loads the profile of a user.
func (r *Repository) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	const query = `SELECT user_id, bio, birthday, time_zone, position, telegram, phone, city
		FROM profiles WHERE user_id = ?`
	var (
		p        models.Profile
		birthday sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.Bio, &birthday, &p.TimeZone,
		&p.Position, &p.Telegram, &p.Phone, &p.City)
	if err != nil {
		return nil, notFound(err)
	}
	if birthday.Valid {
		p.Birthday = &birthday.Time
	}
	return &p, nil
}

// UpdateProfile applies the non-nil fields of update to the user and profile.
func (r *Repository) UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) error {
	var (
		userSets, profileSets []string
		userArgs, profileArgs []any
	)
	addUser := func(column string, v *string) {
		if v != nil {
			userSets = append(userSets, column+" = ?")
			userArgs = append(userArgs, *v)
		}
	}
	addProfile := func(column string, v any) {
		profileSets = append(profileSets, column+" = ?")
		profileArgs = append(profileArgs, v)
	}

	addUser("first_name", update.FirstName)
	addUser("last_name", update.LastName)
	addUser("middle_name", update.MiddleName)
	if update.Bio != nil {
		addProfile("bio", *update.Bio)
	}
	if update.ClearBirthday {
		addProfile("birthday", nil)
	} else if update.Birthday != nil {
		addProfile("birthday", *update.Birthday)
	}
	if update.TimeZone != nil {
		addProfile("time_zone", *update.TimeZone)
	}
	if update.Position != nil {
		addProfile("position", *update.Position)
	}
	if update.Telegram != nil {
		addProfile("telegram", *update.Telegram)
	}
	if update.Phone != nil {
		addProfile("phone", *update.Phone)
	}
	if update.City != nil {
		addProfile("city", *update.City)
	}

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if len(userSets) > 0 {
			query := `UPDATE users SET ` + strings.Join(userSets, ", ") + ` WHERE id = ?`
			if _, err := tx.ExecContext(ctx, query, append(userArgs, userID)...); err != nil {
				return fmt.Errorf("update user: %w", err)
			}
		}
		if len(profileSets) > 0 {
			query := `UPDATE profiles SET ` + strings.Join(profileSets, ", ") + ` WHERE user_id = ?`
			if _, err := tx.ExecContext(ctx, query, append(profileArgs, userID)...); err != nil {
				return fmt.Errorf("update profile: %w", err)
			}
		}
		return nil
	})
}

// UpdateAvatar stores the media path of the user's image.
func (r *Repository) UpdateAvatar(ctx context.Context, userID int64, image string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET image = ? WHERE id = ?`, image, userID)
	if err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListUserProjects returns the projects of every team the user belongs to.
func (r *Repository) ListUserProjects(ctx context.Context, userID int64) ([]teammodels.ProjectShort, error) {
	const query = `SELECT DISTINCT p.id, p.name
		FROM projects p
		JOIN project_teams pt ON pt.project_id = p.id
		JOIN members m ON m.team_id = pt.team_id
		WHERE m.user_id = ?
		ORDER BY p.name`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query user projects: %w", err)
	}
	defer rows.Close()

	projects := []teammodels.ProjectShort{}
	for rows.Next() {
		var p teammodels.ProjectShort
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListUserTeamIDs returns the teams a user is a member of.
func (r *Repository) ListUserTeamIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT team_id FROM members WHERE user_id = ? ORDER BY team_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user teams: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan team id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListCities returns the distinct non-empty cities of all profiles.
func (r *Repository) ListCities(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT city FROM profiles WHERE city <> '' ORDER BY city`)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	return scanStrings(rows)
}

// ListPositions returns the distinct non-empty positions of all profiles.
func (r *Repository) ListPositions(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT position FROM profiles WHERE position <> '' ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	return scanStrings(rows)
}
