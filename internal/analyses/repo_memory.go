package analyses

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores analyses in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Analysis
	byUser map[string][]string // userID -> analysis IDs in insertion order
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Analysis),
		byUser: make(map[string][]string),
	}
}

// Create stores the analysis.
func (r *MemoryRepo) Create(ctx context.Context, analysis Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[analysis.ID] = analysis
	r.byUser[analysis.UserID] = append(r.byUser[analysis.UserID], analysis.ID)
	return nil
}

// GetByID returns an analysis by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	analysis, ok := r.byID[analysisID]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return analysis, nil
}

// UpdateStatus sets the status and optionally the started timestamp.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, analysisID, status string, startedAt *time.Time) error {
	return r.update(ctx, analysisID, func(a *Analysis) {
		a.Status = status
		if startedAt != nil {
			a.StartedAt = startedAt
		}
	})
}

// UpdateRaw stores the raw model response.
func (r *MemoryRepo) UpdateRaw(ctx context.Context, analysisID string, raw any) error {
	return r.update(ctx, analysisID, func(a *Analysis) {
		a.RawResponse = raw
	})
}

// UpdateResult marks the analysis completed with its report and warnings.
func (r *MemoryRepo) UpdateResult(ctx context.Context, analysisID string, report map[string]any, warnings []string, completedAt *time.Time) error {
	return r.update(ctx, analysisID, func(a *Analysis) {
		a.Status = StatusCompleted
		a.Report = report
		a.Warnings = warnings
		a.ErrorCode = ""
		a.ErrorMessage = ""
		a.ErrorRetryable = false
		if completedAt != nil {
			a.CompletedAt = completedAt
		}
	})
}

// UpdateFailure marks the analysis failed with a classified error.
func (r *MemoryRepo) UpdateFailure(ctx context.Context, analysisID, code, message string, retryable bool, completedAt *time.Time) error {
	return r.update(ctx, analysisID, func(a *Analysis) {
		a.Status = StatusFailed
		a.ErrorCode = code
		a.ErrorMessage = message
		a.ErrorRetryable = retryable
		if completedAt != nil {
			a.CompletedAt = completedAt
		}
	})
}

func (r *MemoryRepo) update(ctx context.Context, analysisID string, apply func(*Analysis)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.byID[analysisID]
	if !ok {
		return ErrNotFound
	}
	apply(&analysis)
	analysis.UpdatedAt = time.Now().UTC()
	r.byID[analysisID] = analysis
	return nil
}

// ListByUser returns analyses for a user, newest first, with limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Analysis, error) {
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
	ids := r.byUser[userID]
	out := make([]Analysis, 0, len(ids))
	for _, id := range ids {
		if analysis, ok := r.byID[id]; ok {
			out = append(out, analysis)
		}
	}
	r.mu.RUnlock()

	if len(out) == 0 || offset >= len(out) {
		return []Analysis{}, nil
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

var _ Repo = (*MemoryRepo)(nil)
