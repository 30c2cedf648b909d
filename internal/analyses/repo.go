package analyses

import (
	"context"
	"time"
)

// Repo defines persistence operations for analyses.
type Repo interface {
	Create(ctx context.Context, analysis Analysis) error
	GetByID(ctx context.Context, analysisID string) (Analysis, error)
	UpdateStatus(ctx context.Context, analysisID, status string, startedAt *time.Time) error
	UpdateRaw(ctx context.Context, analysisID string, raw any) error
	UpdateResult(ctx context.Context, analysisID string, report map[string]any, warnings []string, completedAt *time.Time) error
	UpdateFailure(ctx context.Context, analysisID, code, message string, retryable bool, completedAt *time.Time) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Analysis, error)
}
