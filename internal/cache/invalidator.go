package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/nikhil/orgchart/internal/logger"
)

// Invalidator drops cached views after writes. Failures are logged and
// never returned: the database is the source of truth and a stale entry is
// preferable to a failed write request.
type Invalidator struct {
	Cache CacheInterface
	Log   *logger.Logger
}

// NewInvalidator creates an Invalidator over c.
func NewInvalidator(c CacheInterface, log *logger.Logger) *Invalidator {
	return &Invalidator{Cache: c, Log: log}
}

// TeamChanged drops the team list and the detail of teamID.
func (i *Invalidator) TeamChanged(ctx context.Context, teamID int64) {
	i.drop(ctx, KeyTeams, TeamKey(teamID))
}

// MembersChanged drops everything derived from the members of teamID.
func (i *Invalidator) MembersChanged(ctx context.Context, teamID int64) {
	i.drop(ctx, TeamMembersKey(teamID), TeamKey(teamID), KeyTeams, KeyMembers)
}

// ProjectChanged drops the team list and the project lists of userIDs.
func (i *Invalidator) ProjectChanged(ctx context.Context, userIDs ...int64) {
	keys := []string{KeyTeams}
	for _, id := range userIDs {
		keys = append(keys, UserProjectsKey(id))
	}
	i.drop(ctx, keys...)
}

// UserChanged drops views that render a user's name, image or position.
func (i *Invalidator) UserChanged(ctx context.Context, teamIDs ...int64) {
	keys := []string{KeyMembers}
	for _, id := range teamIDs {
		keys = append(keys, TeamMembersKey(id))
	}
	i.drop(ctx, keys...)
}

func (i *Invalidator) drop(ctx context.Context, keys ...string) {
	var result *multierror.Error
	for _, key := range keys {
		if err := i.Cache.Delete(ctx, key); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", key, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		i.Log.WithContext(ctx).Warn("Cache invalidation failed", "keys", keys, "error", err)
	}
}

// AddToSet adds value to the string set stored at key, but only when the
// set is already cached. An uncached set is built from the database on its
// next read. Sets are loaded under a case-insensitive collation, so
// membership ignores case and the insert keeps case-insensitive order.
func AddToSet(ctx context.Context, c CacheInterface, key, value string) error {
	if value == "" {
		return nil
	}
	var set []string
	if err := GetJSON(ctx, c, key, &set); err != nil {
		if errors.Is(err, ErrMiss) {
			return nil
		}
		return err
	}
	for _, existing := range set {
		if strings.EqualFold(existing, value) {
			return nil
		}
	}
	lowered := strings.ToLower(value)
	idx := sort.Search(len(set), func(i int) bool {
		return strings.ToLower(set[i]) >= lowered
	})
	set = append(set, "")
	copy(set[idx+1:], set[idx:])
	set[idx] = value
	return SetJSON(ctx, c, key, set)
}
