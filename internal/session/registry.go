package session

import (
	"sync"

	"equipment-requests-api-server/internal/models"
)

// FiltersPatch carries a partial filters update. Nil fields are kept.
type FiltersPatch struct {
	SearchTerm *string `json:"searchTerm"`
	Status     *string `json:"status"`
}

// Registry holds the dashboard filters of every active user in memory.
type Registry struct {
	mu      sync.RWMutex
	filters map[int]models.Filters
}

func NewRegistry() *Registry {
	return &Registry{filters: make(map[int]models.Filters)}
}

// Filters returns the user's filters, or the defaults for a new user.
func (r *Registry) Filters(userID int) models.Filters {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.filters[userID]; ok {
		return f
	}
	return models.DefaultFilters()
}

// SetFilters merges patch into the user's filters and returns the result.
func (r *Registry) SetFilters(userID int, patch FiltersPatch) models.Filters {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.filters[userID]
	if !ok {
		f = models.DefaultFilters()
	}
	if patch.SearchTerm != nil {
		f.SearchTerm = *patch.SearchTerm
	}
	if patch.Status != nil {
		f.Status = *patch.Status
		if f.Status == "" {
			f.Status = models.StatusAll
		}
	}
	r.filters[userID] = f
	return f
}

// End drops the user's state; the next read starts from the defaults.
func (r *Registry) End(userID int) {
	r.mu.Lock()
	delete(r.filters, userID)
	r.mu.Unlock()
}
