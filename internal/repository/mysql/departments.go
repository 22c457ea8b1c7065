package mysql

import (
	"context"
	"fmt"

	teammodels "github.com/nikhil/orgchart/internal/models/teams"
)

// GetDepartment returns a department by identifier.
func (r *Repository) GetDepartment(ctx context.Context, departmentID int64) (*teammodels.Department, error) {
	var d teammodels.Department
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM departments WHERE id = ?`, departmentID).Scan(&d.ID, &d.Name)
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

// ListDepartmentNames returns all department names in order.
func (r *Repository) ListDepartmentNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM departments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query departments: %w", err)
	}
	return scanStrings(rows)
}
