package teamService

import (
	"context"
	"sort"
	"sync"

	"github.com/nikhil/orgchart/internal/models"
	teammodels "github.com/nikhil/orgchart/internal/models/teams"
	usermodels "github.com/nikhil/orgchart/internal/models/users"
	"github.com/nikhil/orgchart/internal/orgtree"
	"github.com/nikhil/orgchart/internal/repository"
)

// memStore is an in-memory Store. Methods the team service never calls are
// left to the embedded nil interface.
type memStore struct {
	repository.UserRepository

	mu          sync.Mutex
	teams       map[int64]*teammodels.Team
	members     map[int64]*teammodels.Member
	users       map[int64]string
	departments map[int64]string
	versions    map[int64]int64
	nextID      int64
	cardLoads   int
}

func newMemStore() *memStore {
	return &memStore{
		teams:       map[int64]*teammodels.Team{},
		members:     map[int64]*teammodels.Member{},
		users:       map[int64]string{},
		departments: map[int64]string{},
		versions:    map[int64]int64{},
		nextID:      100,
	}
}

func (s *memStore) addMember(id, teamID, userID int64, parentID *int64) {
	s.members[id] = &teammodels.Member{ID: id, TeamID: teamID, UserID: userID, ParentID: parentID}
	if _, ok := s.users[userID]; !ok {
		s.users[userID] = "user"
	}
}

func (s *memStore) CreateTeam(_ context.Context, team *teammodels.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	team.ID = s.nextID
	copied := *team
	s.teams[team.ID] = &copied
	s.nextID++
	s.members[s.nextID] = &teammodels.Member{ID: s.nextID, TeamID: team.ID, UserID: team.OwnerID}
	return nil
}

func (s *memStore) GetTeam(_ context.Context, teamID int64) (*teammodels.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[teamID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *memStore) ListTeams(context.Context) ([]teammodels.TeamListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []teammodels.TeamListItem{}
	for _, t := range s.teams {
		out = append(out, teammodels.TeamListItem{ID: t.ID, Name: t.Name, Projects: []teammodels.ProjectShort{}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) UpdateTeam(_ context.Context, team *teammodels.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *team
	s.teams[team.ID] = &copied
	return nil
}

func (s *memStore) GetMember(_ context.Context, memberID int64) (*teammodels.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (s *memStore) GetMemberByUser(_ context.Context, teamID, userID int64) (*teammodels.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.TeamID == teamID && m.UserID == userID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) sortedMembers(teamID int64) []*teammodels.Member {
	out := []*teammodels.Member{}
	for _, m := range s.members {
		if m.TeamID == teamID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) ListMemberCards(_ context.Context, teamID int64) ([]teammodels.MemberCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cardLoads++
	cards := []teammodels.MemberCard{}
	for _, m := range s.sortedMembers(teamID) {
		cards = append(cards, teammodels.MemberCard{ID: m.ID, ParentID: m.ParentID, UserID: m.UserID, FullName: s.users[m.UserID]})
	}
	return cards, nil
}

func (s *memStore) ListMembers(context.Context, teammodels.MemberFilter) ([]teammodels.MemberListItem, int, error) {
	return nil, 0, nil
}

func (s *memStore) AddMember(_ context.Context, member *teammodels.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.TeamID == member.TeamID && m.UserID == member.UserID {
			return repository.ErrConflict
		}
	}
	s.nextID++
	member.ID = s.nextID
	copied := *member
	s.members[member.ID] = &copied
	s.versions[member.TeamID]++
	return nil
}

func (s *memStore) TeamVersion(_ context.Context, teamID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[teamID]; !ok {
		return 0, repository.ErrNotFound
	}
	return s.versions[teamID], nil
}

// Reparent holds the store lock for the whole read-validate-write, the way
// the MySQL implementation holds the team row lock.
func (s *memStore) Reparent(_ context.Context, teamID, memberID, parentID int64, validate func([]orgtree.Edge) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[teamID]; !ok {
		return repository.ErrNotFound
	}
	edges := []orgtree.Edge{}
	for _, m := range s.sortedMembers(teamID) {
		edges = append(edges, orgtree.Edge{ID: m.ID, ParentID: m.ParentID})
	}
	if err := validate(edges); err != nil {
		return err
	}
	parent := parentID
	s.members[memberID].ParentID = &parent
	s.versions[teamID]++
	return nil
}

func (s *memStore) GetUserByID(_ context.Context, id int64) (*usermodels.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return nil, repository.ErrNotFound
	}
	return &usermodels.User{UserID: id, IsActive: true}, nil
}

func (s *memStore) GetDepartment(_ context.Context, id int64) (*teammodels.Department, error) {
	name, ok := s.departments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &teammodels.Department{ID: id, Name: name}, nil
}

func (s *memStore) ListDepartmentNames(context.Context) ([]string, error) {
	return []string{}, nil
}

type recordingHub struct {
	mu     sync.Mutex
	events []models.Event
}

func (h *recordingHub) BroadcastToTeam(event models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}
