package mysql

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	teammodels "github.com/nikhil/orgchart/internal/models/teams"
	"github.com/nikhil/orgchart/internal/orgtree"
	"github.com/nikhil/orgchart/internal/repository"
)

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func edgeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "parent_id"}).
		AddRow(1, nil).
		AddRow(2, 1).
		AddRow(3, 2).
		AddRow(4, nil)
}

func TestReparentLocksTeamBeforeReadingEdges(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM teams WHERE id = ? FOR UPDATE`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, parent_id FROM members WHERE team_id = ?`)).
		WithArgs(7).
		WillReturnRows(edgeRows())
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE members SET parent_id = ? WHERE id = ? AND team_id = ?`)).
		WithArgs(3, 4, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE teams SET structure_version = structure_version + 1 WHERE id = ?`)).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var seen []orgtree.Edge
	err := repo.Reparent(context.Background(), 7, 4, 3, func(edges []orgtree.Edge) error {
		seen = edges
		return orgtree.ValidateReparent(edges, 4, 3)
	})

	require.NoError(t, err)
	require.Len(t, seen, 4)
	require.Nil(t, seen[0].ParentID)
	require.Equal(t, int64(2), *seen[2].ParentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReparentRollsBackOnValidationError(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM teams WHERE id = ? FOR UPDATE`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, parent_id FROM members WHERE team_id = ?`)).
		WithArgs(7).
		WillReturnRows(edgeRows())
	mock.ExpectRollback()

	err := repo.Reparent(context.Background(), 7, 2, 3, func(edges []orgtree.Edge) error {
		return orgtree.ValidateReparent(edges, 2, 3)
	})

	require.ErrorIs(t, err, orgtree.ErrCyclicReparenting)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReparentMissingTeam(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM teams WHERE id = ? FOR UPDATE`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.Reparent(context.Background(), 9, 1, 2, func([]orgtree.Edge) error {
		t.Fatal("validate must not run for a missing team")
		return nil
	})

	require.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListMemberCards(t *testing.T) {
	repo, mock := newMock(t)

	rows := sqlmock.NewRows([]string{"id", "parent_id", "user_id", "last_name", "first_name", "middle_name", "image", "position", "department"}).
		AddRow(1, nil, 10, "Ivanov", "Ivan", "", "images/users/10.png", "CTO", "Backend").
		AddRow(2, 1, 11, "Petrov", "Petr", "Petrovich", "", "", "")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM members m`)).WithArgs(5).WillReturnRows(rows)

	cards, err := repo.ListMemberCards(context.Background(), 5)

	require.NoError(t, err)
	require.Equal(t, []teammodels.MemberCard{
		{ID: 1, UserID: 10, FullName: "Ivanov Ivan", Image: "images/users/10.png", Position: "CTO", Department: "Backend"},
		{ID: 2, ParentID: ptr(1), UserID: 11, FullName: "Petrov Petr Petrovich"},
	}, cards)
	require.NoError(t, mock.ExpectationsWereMet())
}

func ptr(v int64) *int64 { return &v }

func TestAddMemberDuplicate(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO members`)).
		WithArgs(5, 11, 1, nil).
		WillReturnError(&mysql.MySQLError{Number: errDuplicateEntry, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := repo.AddMember(context.Background(), &teammodels.Member{TeamID: 5, UserID: 11, ParentID: ptr(1)})

	require.ErrorIs(t, err, repository.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMemberBumpsStructureVersion(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO members`)).
		WithArgs(5, 11, nil, nil).
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE teams SET structure_version = structure_version + 1 WHERE id = ?`)).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	member := &teammodels.Member{TeamID: 5, UserID: 11}
	require.NoError(t, repo.AddMember(context.Background(), member))
	require.Equal(t, int64(21), member.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamVersion(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT structure_version FROM teams WHERE id = ?`)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"structure_version"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT structure_version FROM teams WHERE id = ?`)).
		WithArgs(6).
		WillReturnRows(sqlmock.NewRows([]string{"structure_version"}))

	version, err := repo.TeamVersion(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, int64(3), version)

	_, err = repo.TeamVersion(context.Background(), 6)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetMemberNotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM members WHERE id = ?`)).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "team_id", "user_id", "parent_id", "department_id"}))

	_, err := repo.GetMember(context.Background(), 42)

	require.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestListMembersBuildsFilters(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*)`)).
		WithArgs("Perm", 3, `50\%%`, `50\%%`, `50\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY m.id LIMIT ? OFFSET ?`)).
		WithArgs("Perm", 3, `50\%%`, `50\%%`, `50\%%`, 24, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "last_name", "first_name", "middle_name", "department", "position", "city"}).
			AddRow(8, "Sidorov", "Semen", "", "DevOps", "SRE", "Perm"))

	members, total, err := repo.ListMembers(context.Background(), teammodels.MemberFilter{
		City:         "Perm",
		DepartmentID: 3,
		Search:       "50%",
		Limit:        24,
	})

	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, []teammodels.MemberListItem{
		{ID: 8, FullName: "Sidorov Semen", Department: "DevOps", Position: "SRE", City: "Perm"},
	}, members)
	require.NoError(t, mock.ExpectationsWereMet())
}
