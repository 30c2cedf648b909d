package sites

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of SitesRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Site // userId -> sites
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Site),
	}
}

// Create appends a site for a user.
func (r *MemoryRepo) Create(ctx context.Context, site Site) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[site.UserID] = append(r.data[site.UserID], site)
	return nil
}

// GetByID returns a site by ID for a user.
func (r *MemoryRepo) GetByID(ctx context.Context, userId, siteID string) (Site, error) {
	if err := ctx.Err(); err != nil {
		return Site{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	userSites := r.data[userId]
	for i := range userSites {
		if userSites[i].ID == siteID {
			return userSites[i], nil
		}
	}
	return Site{}, ErrNotFound
}

// GetCurrentByUser returns the most recently created site for a user.
func (r *MemoryRepo) GetCurrentByUser(ctx context.Context, userId string) (Site, error) {
	if err := ctx.Err(); err != nil {
		return Site{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	userSites, ok := r.data[userId]
	if !ok || len(userSites) == 0 {
		return Site{}, ErrNotFound
	}
	return userSites[len(userSites)-1], nil
}

// ListByUser returns sites for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userId string, limit, offset int) ([]Site, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	userSites := r.data[userId]
	r.mu.RUnlock()

	if len(userSites) == 0 || offset >= len(userSites) {
		return []Site{}, nil
	}

	out := make([]Site, len(userSites))
	copy(out, userSites)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return out[offset:end], nil
}

var _ SitesRepo = (*MemoryRepo)(nil)
