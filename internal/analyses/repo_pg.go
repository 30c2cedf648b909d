package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new analysis.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO analyses (
    id,
    site_id,
    user_id,
    status,
    provider,
    model,
    prompt_version,
    report,
    raw_response,
    warnings,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`

	report, err := marshalJSONB(analysis.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	raw, err := marshalJSONB(analysis.RawResponse)
	if err != nil {
		return fmt.Errorf("marshal raw response: %w", err)
	}
	warnings, err := marshalJSONB(analysis.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		analysis.ID,
		analysis.SiteID,
		analysis.UserID,
		analysis.Status,
		analysis.Provider,
		analysis.Model,
		analysis.PromptVersion,
		report,
		raw,
		warnings,
		analysis.CreatedAt,
	)
	return err
}

const analysisColumns = `id, site_id, user_id, status, provider, model, prompt_version, report, raw_response, warnings, error_code, error_message, error_retryable, started_at, completed_at, created_at, updated_at`

// GetByID fetches an analysis by ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	const query = `
SELECT ` + analysisColumns + `
FROM analyses
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	analysis, err := scanAnalysis(r.DB.QueryRowContext(ctx, query, analysisID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	return analysis, nil
}

// UpdateStatus sets the status and optionally the started timestamp.
func (r *PGRepo) UpdateStatus(ctx context.Context, analysisID, status string, startedAt *time.Time) error {
	const query = `
UPDATE analyses
SET status = $1,
    started_at = COALESCE($2, started_at),
    updated_at = NOW()
WHERE id = $3 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, status, nullTime(startedAt), analysisID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateRaw stores the raw model response.
func (r *PGRepo) UpdateRaw(ctx context.Context, analysisID string, raw any) error {
	payload, err := marshalJSONB(raw)
	if err != nil {
		return fmt.Errorf("marshal raw response: %w", err)
	}
	const query = `
UPDATE analyses
SET raw_response = $1,
    updated_at = NOW()
WHERE id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, payload, analysisID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateResult marks the analysis completed with its report and warnings.
func (r *PGRepo) UpdateResult(ctx context.Context, analysisID string, report map[string]any, warnings []string, completedAt *time.Time) error {
	reportPayload, err := marshalJSONB(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	warningsPayload, err := marshalJSONB(warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	const query = `
UPDATE analyses
SET status = $1,
    report = $2,
    warnings = $3,
    error_code = NULL,
    error_message = NULL,
    error_retryable = NULL,
    completed_at = COALESCE($4, completed_at),
    updated_at = NOW()
WHERE id = $5 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, StatusCompleted, reportPayload, warningsPayload, nullTime(completedAt), analysisID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateFailure marks the analysis failed with a classified error.
func (r *PGRepo) UpdateFailure(ctx context.Context, analysisID, code, message string, retryable bool, completedAt *time.Time) error {
	const query = `
UPDATE analyses
SET status = $1,
    error_code = $2,
    error_message = $3,
    error_retryable = $4,
    completed_at = COALESCE($5, completed_at),
    updated_at = NOW()
WHERE id = $6 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, StatusFailed, code, message, retryable, nullTime(completedAt), analysisID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListByUser lists analyses ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + analysisColumns + `
FROM analyses
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, analysis)
	}
	return out, rows.Err()
}

type analysisScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row analysisScanner) (Analysis, error) {
	var analysis Analysis
	var report, raw, warnings []byte
	var errorCode, errorMessage sql.NullString
	var errorRetryable sql.NullBool
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&analysis.ID,
		&analysis.SiteID,
		&analysis.UserID,
		&analysis.Status,
		&analysis.Provider,
		&analysis.Model,
		&analysis.PromptVersion,
		&report,
		&raw,
		&warnings,
		&errorCode,
		&errorMessage,
		&errorRetryable,
		&startedAt,
		&completedAt,
		&analysis.CreatedAt,
		&analysis.UpdatedAt,
	)
	if err != nil {
		return Analysis{}, err
	}

	if len(report) > 0 {
		if err := json.Unmarshal(report, &analysis.Report); err != nil {
			return Analysis{}, fmt.Errorf("unmarshal report: %w", err)
		}
	}
	if len(raw) > 0 {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return Analysis{}, fmt.Errorf("unmarshal raw response: %w", err)
		}
		analysis.RawResponse = parsed
	}
	if len(warnings) > 0 {
		if err := json.Unmarshal(warnings, &analysis.Warnings); err != nil {
			return Analysis{}, fmt.Errorf("unmarshal warnings: %w", err)
		}
	}
	if errorCode.Valid {
		analysis.ErrorCode = errorCode.String
	}
	if errorMessage.Valid {
		analysis.ErrorMessage = errorMessage.String
	}
	if errorRetryable.Valid {
		analysis.ErrorRetryable = errorRetryable.Bool
	}
	if startedAt.Valid {
		t := startedAt.Time
		analysis.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		analysis.CompletedAt = &t
	}

	return analysis, nil
}

func marshalJSONB(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
