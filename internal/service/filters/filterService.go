package filterService

import (
	"context"
	"net/http"

	"github.com/nikhil/orgchart/internal/cache"
	"github.com/nikhil/orgchart/internal/logger"
	"github.com/nikhil/orgchart/internal/repository"
	"github.com/nikhil/orgchart/internal/response"
)

// Store is the persistence the filter service reads.
type Store interface {
	ListCities(ctx context.Context) ([]string, error)
	ListPositions(ctx context.Context) ([]string, error)
	ListDepartmentNames(ctx context.Context) ([]string, error)
}

var _ Store = (interface {
	repository.UserRepository
	repository.DepartmentRepository
})(nil)

// Filters lists the values the member directory can be filtered by.
type Filters struct {
	Cities      []string `json:"cities"`
	Departments []string `json:"departments"`
	Positions   []string `json:"positions"`
}

// FilterService serves the directory filter values.
type FilterService struct {
	Store Store
	Cache cache.CacheInterface
	Log   *logger.Logger
}

func NewFilterService(store Store, c cache.CacheInterface, log *logger.Logger) *FilterService {
	return &FilterService{Store: store, Cache: c, Log: log}
}

// Get returns every filter set, each cached independently.
func (fs *FilterService) Get(ctx context.Context) (*Filters, error) {
	onError := func(key string, err error) {
		fs.Log.WithContext(ctx).Warn("Cache unavailable", "key", key, "error", err)
	}

	var (
		out Filters
		err error
	)
	if out.Cities, err = cache.Remember(ctx, fs.Cache, cache.KeyCities, fs.Store.ListCities, onError); err != nil {
		return nil, err
	}
	if out.Departments, err = cache.Remember(ctx, fs.Cache, cache.KeyDepartments, fs.Store.ListDepartmentNames, onError); err != nil {
		return nil, err
	}
	if out.Positions, err = cache.Remember(ctx, fs.Cache, cache.KeyPositions, fs.Store.ListPositions, onError); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFilters handles GET /filters/.
func (fs *FilterService) GetFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := fs.Get(r.Context())
	if err != nil {
		response.WriteError(w, r, fs.Log, err)
		return
	}
	response.JSON(w, http.StatusOK, filters)
}
