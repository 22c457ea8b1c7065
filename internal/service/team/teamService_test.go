package teamService

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/nikhil/orgchart/internal/cache"
	"github.com/nikhil/orgchart/internal/logger"
	"github.com/nikhil/orgchart/internal/middleware"
	"github.com/nikhil/orgchart/internal/models"
	teammodels "github.com/nikhil/orgchart/internal/models/teams"
	"github.com/nikhil/orgchart/internal/orgtree"
)

var (
	owner    = middleware.Identity{UserID: 10}
	stranger = middleware.Identity{UserID: 11}
	staff    = middleware.Identity{UserID: 99, IsStaff: true}
)

func ptr(v int64) *int64 { return &v }

type fixture struct {
	store *memStore
	hub   *recordingHub
	svc   *TeamService
}

// newFixture builds team 1 owned by user 10 with A(1) <- B(2) <- C(3) and a
// detached D(4), plus team 2 with a single member 5.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	store.teams[1] = &teammodels.Team{ID: 1, Name: "Core", OwnerID: 10}
	store.teams[2] = &teammodels.Team{ID: 2, Name: "Mobile", OwnerID: 14}
	store.addMember(1, 1, 10, nil)
	store.addMember(2, 1, 11, ptr(1))
	store.addMember(3, 1, 12, ptr(2))
	store.addMember(4, 1, 13, nil)
	store.addMember(5, 2, 14, nil)
	store.departments[1] = "Backend"

	c, err := cache.NewMemoryCache()
	require.NoError(t, err)
	hub := &recordingHub{}
	return &fixture{store: store, hub: hub, svc: NewTeamService(store, c, hub, logger.NewNop(), 6)}
}

func (f *fixture) do(t *testing.T, actor middleware.Identity, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	router := mux.NewRouter()
	router.HandleFunc("/teams/", f.svc.GetTeams).Methods(http.MethodGet)
	router.HandleFunc("/teams/", f.svc.CreateTeam).Methods(http.MethodPost)
	router.HandleFunc("/teams/{id}/", f.svc.GetTeam).Methods(http.MethodGet)
	router.HandleFunc("/teams/{id}/", f.svc.UpdateTeam).Methods(http.MethodPatch)
	router.HandleFunc("/teams/{id}/change_employee/", f.svc.ChangeEmployee).Methods(http.MethodPut)
	router.HandleFunc("/teams/{id}/add_member/", f.svc.AddMember).Methods(http.MethodPut)

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(middleware.WithIdentity(req.Context(), actor))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) parentOf(id int64) *int64 {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.members[id].ParentID
}

func TestGetTeamRendersScenario(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, stranger, http.MethodGet, "/teams/1/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Equal(t, "Core", gjson.Get(body, "name").String())
	require.Equal(t, int64(10), gjson.Get(body, "owner").Int())
	require.Equal(t, int64(1), gjson.Get(body, "employees.id").Int())
	require.Equal(t, int64(2), gjson.Get(body, "employees.subordinates.0.id").Int())
	require.Equal(t, int64(3), gjson.Get(body, "employees.subordinates.0.subordinates.0.id").Int())
	require.Equal(t, int64(0), gjson.Get(body, "employees.subordinates.0.subordinates.0.subordinates.#").Int())
	require.Equal(t, int64(1), gjson.Get(body, "employees.without_parent.#").Int())
	require.Equal(t, int64(4), gjson.Get(body, "employees.without_parent.0.id").Int())
	require.False(t, gjson.Get(body, "employees.parent_id").Exists())
}

func TestGetTeamHonoursDeep(t *testing.T) {
	f := newFixture(t)

	for deep, wantGrandchildren := range map[string]int64{"1": 0, "2": 0, "3": 1, "abc": 1, "100": 1} {
		rec := f.do(t, stranger, http.MethodGet, "/teams/1/?deep="+deep, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		require.Equal(t, wantGrandchildren, gjson.Get(body, "employees.subordinates.0.subordinates.#").Int(), deep)
	}
	rec := f.do(t, stranger, http.MethodGet, "/teams/1/?deep=1", nil)
	require.Equal(t, int64(0), gjson.Get(rec.Body.String(), "employees.subordinates.#").Int())
}

func TestGetTeamNotFound(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusNotFound, f.do(t, owner, http.MethodGet, "/teams/42/", nil).Code)
	require.Equal(t, http.StatusNotFound, f.do(t, owner, http.MethodGet, "/teams/abc/", nil).Code)
}

func TestGetTeamServesMemberCardsFromCache(t *testing.T) {
	f := newFixture(t)

	f.do(t, owner, http.MethodGet, "/teams/1/", nil)
	rec := f.do(t, owner, http.MethodGet, "/teams/1/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, f.store.cardLoads)
	require.Equal(t, int64(3), gjson.Get(rec.Body.String(), "employees.subordinates.0.subordinates.0.id").Int(),
		"parent pointers survive the cache round trip")
}

func TestChangeEmployeeRejectsCycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, owner, http.MethodPut, "/teams/1/change_employee/", ChangeEmployeeRequest{MemberID: 2, ParentID: 3})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, orgtree.ErrCyclicReparenting.Message, gjson.Get(rec.Body.String(), "parent_id.0").String())
	require.Equal(t, int64(1), *f.parentOf(2))
	require.Equal(t, int64(2), *f.parentOf(3))
	require.Empty(t, f.hub.events)
}

func TestChangeEmployeeValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		req    ChangeEmployeeRequest
		status int
		field  string
	}{
		{"self", ChangeEmployeeRequest{MemberID: 2, ParentID: 2}, http.StatusBadRequest, "member_id"},
		{"already set", ChangeEmployeeRequest{MemberID: 3, ParentID: 2}, http.StatusBadRequest, "member_id"},
		{"other team", ChangeEmployeeRequest{MemberID: 4, ParentID: 5}, http.StatusBadRequest, "parent_id"},
		{"missing member", ChangeEmployeeRequest{MemberID: 77, ParentID: 1}, http.StatusNotFound, "error"},
		{"missing ids", ChangeEmployeeRequest{}, http.StatusBadRequest, "member_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, owner, http.MethodPut, "/teams/1/change_employee/", tc.req)
			require.Equal(t, tc.status, rec.Code)
			require.True(t, gjson.Get(rec.Body.String(), tc.field).Exists(), rec.Body.String())
		})
	}
}

func TestChangeEmployeeRequiresOwnerOrStaff(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, stranger, http.MethodPut, "/teams/1/change_employee/", ChangeEmployeeRequest{MemberID: 4, ParentID: 3})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Nil(t, f.parentOf(4))

	rec = f.do(t, staff, http.MethodPut, "/teams/1/change_employee/", ChangeEmployeeRequest{MemberID: 4, ParentID: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(3), *f.parentOf(4))
}

func TestChangeEmployeeRefreshesTreeAndBroadcasts(t *testing.T) {
	f := newFixture(t)
	f.do(t, owner, http.MethodGet, "/teams/1/", nil)

	rec := f.do(t, owner, http.MethodPut, "/teams/1/change_employee/", ChangeEmployeeRequest{MemberID: 4, ParentID: 3})
	require.Equal(t, http.StatusOK, rec.Code)

	body := f.do(t, owner, http.MethodGet, "/teams/1/", nil).Body.String()
	require.Equal(t, int64(4), gjson.Get(body, "employees.subordinates.0.subordinates.0.subordinates.0.id").Int())
	require.Equal(t, int64(0), gjson.Get(body, "employees.without_parent.#").Int())
	require.Equal(t, 2, f.store.cardLoads)

	require.Len(t, f.hub.events, 1)
	require.Equal(t, models.EventMemberReparented, f.hub.events[0].Type)
	require.Equal(t, int64(4), f.hub.events[0].MemberID)
}

// slowReader commits a reparent after the first card snapshot is taken and
// before the reader gets to cache it.
type slowReader struct {
	*memStore
	svc  *TeamService
	once sync.Once
	err  error
}

func (s *slowReader) ListMemberCards(ctx context.Context, teamID int64) ([]teammodels.MemberCard, error) {
	cards, err := s.memStore.ListMemberCards(ctx, teamID)
	s.once.Do(func() {
		s.err = s.svc.Reparent(ctx, owner, teamID, 4, 1)
	})
	return cards, err
}

func TestStaleSnapshotIsNotServedAfterReparent(t *testing.T) {
	f := newFixture(t)
	store := &slowReader{memStore: f.store}
	c, err := cache.NewMemoryCache()
	require.NoError(t, err)
	svc := NewTeamService(store, c, f.hub, logger.NewNop(), 6)
	store.svc = svc

	first, err := svc.Detail(context.Background(), 1, 6)
	require.NoError(t, err)
	require.NoError(t, store.err)
	require.Len(t, first.Employees.WithoutParent, 1, "the racing read renders its own snapshot")
	require.Equal(t, int64(1), *f.parentOf(4))

	later, err := svc.Detail(context.Background(), 1, 6)
	require.NoError(t, err)
	require.Empty(t, later.Employees.WithoutParent)
	require.Len(t, later.Employees.Subordinates, 2)
	require.Equal(t, int64(4), later.Employees.Subordinates[1].ID)
}

func TestConcurrentReparentsKeepForest(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t)
		// 3 and 4 are unrelated; moving each under the other at the same time
		// must let exactly one through.
		var (
			wg      sync.WaitGroup
			results = make([]error, 2)
		)
		for i, pair := range [][2]int64{{3, 4}, {4, 3}} {
			wg.Add(1)
			go func(i int, member, parent int64) {
				defer wg.Done()
				results[i] = f.svc.Reparent(context.Background(), owner, 1, member, parent)
			}(i, pair[0], pair[1])
		}
		wg.Wait()

		failures := 0
		for _, err := range results {
			if err != nil {
				require.ErrorIs(t, err, orgtree.ErrCyclicReparenting)
				failures++
			}
		}
		require.Equal(t, 1, failures)

		edges := []orgtree.Edge{}
		for _, m := range f.store.sortedMembers(1) {
			edges = append(edges, orgtree.Edge{ID: m.ID, ParentID: m.ParentID})
		}
		require.False(t, orgtree.HasCycle(edges))
	}
}

func TestAddMember(t *testing.T) {
	f := newFixture(t)
	f.store.users[20] = "new"

	rec := f.do(t, owner, http.MethodPut, "/teams/1/add_member/", AddMemberRequest{UserID: 20, ParentID: ptr(2), DepartmentID: ptr(1)})
	require.Equal(t, http.StatusCreated, rec.Code)
	newID := gjson.Get(rec.Body.String(), "id").Int()
	require.NotZero(t, newID)

	body := f.do(t, owner, http.MethodGet, "/teams/1/", nil).Body.String()
	require.Equal(t, newID, gjson.Get(body, "employees.subordinates.0.subordinates.1.id").Int())
	require.Equal(t, models.EventMemberAdded, f.hub.events[0].Type)

	rec = f.do(t, owner, http.MethodPut, "/teams/1/add_member/", AddMemberRequest{UserID: 20})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestAddMemberRejectsBadReferences(t *testing.T) {
	f := newFixture(t)
	f.store.users[20] = "new"

	rec := f.do(t, owner, http.MethodPut, "/teams/1/add_member/", AddMemberRequest{UserID: 20, ParentID: ptr(5)})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.True(t, gjson.Get(rec.Body.String(), "parent_id").Exists())

	rec = f.do(t, owner, http.MethodPut, "/teams/1/add_member/", AddMemberRequest{UserID: 404, DepartmentID: ptr(9)})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.True(t, gjson.Get(rec.Body.String(), "user_id").Exists())
	require.True(t, gjson.Get(rec.Body.String(), "department_id").Exists())

	rec = f.do(t, stranger, http.MethodPut, "/teams/1/add_member/", AddMemberRequest{UserID: 20})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateAndListTeams(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, int64(2), gjson.Get(f.do(t, owner, http.MethodGet, "/teams/", nil).Body.String(), "#").Int())

	rec := f.do(t, stranger, http.MethodPost, "/teams/", CreateTeamRequest{Name: "Data", Description: "analytics"})
	require.Equal(t, http.StatusCreated, rec.Code)
	teamID := gjson.Get(rec.Body.String(), "id").Int()
	require.Equal(t, int64(11), gjson.Get(rec.Body.String(), "owner").Int())

	require.Equal(t, int64(3), gjson.Get(f.do(t, owner, http.MethodGet, "/teams/", nil).Body.String(), "#").Int())

	detail := f.do(t, stranger, http.MethodGet, "/teams/"+gjson.Get(rec.Body.String(), "id").String()+"/", nil).Body.String()
	require.Equal(t, int64(11), gjson.Get(detail, "employees.user_id").Int(), "creator is the root member of team %d", teamID)

	rec = f.do(t, stranger, http.MethodPost, "/teams/", CreateTeamRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.True(t, gjson.Get(rec.Body.String(), "name").Exists())
}

func TestUpdateTeam(t *testing.T) {
	f := newFixture(t)
	name := "Platform"

	rec := f.do(t, stranger, http.MethodPatch, "/teams/1/", UpdateTeamRequest{Name: &name})
	require.Equal(t, http.StatusForbidden, rec.Code)

	f.do(t, owner, http.MethodGet, "/teams/1/", nil)
	rec = f.do(t, owner, http.MethodPatch, "/teams/1/", UpdateTeamRequest{Name: &name})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Platform", gjson.Get(f.do(t, owner, http.MethodGet, "/teams/1/", nil).Body.String(), "name").String())
	require.Equal(t, models.EventTeamUpdated, f.hub.events[0].Type)
}
