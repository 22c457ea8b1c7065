package memberService

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/nikhil/orgchart/internal/apperrors"
	"github.com/nikhil/orgchart/internal/cache"
	"github.com/nikhil/orgchart/internal/logger"
	teammodels "github.com/nikhil/orgchart/internal/models/teams"
	"github.com/nikhil/orgchart/internal/repository"
	"github.com/nikhil/orgchart/internal/response"
)

// PerPage is the page size of the member directory.
const PerPage = 24

// MemberService serves the member directory.
type MemberService struct {
	Members repository.MemberRepository
	Cache   cache.CacheInterface
	Log     *logger.Logger
}

type memberPage = response.Page[teammodels.MemberListItem]

func NewMemberService(members repository.MemberRepository, c cache.CacheInterface, log *logger.Logger) *MemberService {
	return &MemberService{Members: members, Cache: c, Log: log}
}

// ParseFilter reads the directory filters from the query string.
func ParseFilter(r *http.Request) (teammodels.MemberFilter, int, error) {
	q := r.URL.Query()
	filter := teammodels.MemberFilter{
		City:     strings.TrimSpace(q.Get("city")),
		Position: strings.TrimSpace(q.Get("position")),
		Search:   strings.TrimSpace(q.Get("search")),
		Limit:    PerPage,
	}
	if raw := q.Get("department"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			return filter, 0, apperrors.Field("department", "Select a valid department.")
		}
		filter.DepartmentID = id
	}
	page := response.PageNumber(r)
	filter.Offset = response.Offset(page, PerPage)
	return filter, page, nil
}

// List returns one page of members matching filter. The unfiltered first
// page is the landing view of the directory and is cached.
func (ms *MemberService) List(ctx context.Context, filter teammodels.MemberFilter, page int) (memberPage, error) {
	load := func(ctx context.Context) (memberPage, error) {
		members, total, err := ms.Members.ListMembers(ctx, filter)
		if err != nil {
			return memberPage{}, err
		}
		return response.NewPage(members, total, page, PerPage), nil
	}

	unfiltered := filter.City == "" && filter.Position == "" && filter.Search == "" && filter.DepartmentID == 0
	if unfiltered && page == 1 {
		return cache.Remember(ctx, ms.Cache, cache.KeyMembers, load, func(key string, err error) {
			ms.Log.WithContext(ctx).Warn("Cache unavailable", "key", key, "error", err)
		})
	}
	return load(ctx)
}

// GetMembers handles the member directory listing.
func (ms *MemberService) GetMembers(w http.ResponseWriter, r *http.Request) {
	filter, page, err := ParseFilter(r)
	if err != nil {
		response.WriteError(w, r, ms.Log, err)
		return
	}
	result, err := ms.List(r.Context(), filter, page)
	if err != nil {
		response.WriteError(w, r, ms.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}
