package analyses

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateInsertsAnalysis(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	analysis := Analysis{
		ID:            "analysis-1",
		SiteID:        "site-1",
		UserID:        "user-1",
		Status:        StatusQueued,
		Provider:      "gemini",
		Model:         "gemini-1.5-flash",
		PromptVersion: "v1",
		CreatedAt:     time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO analyses").
		WithArgs(
			analysis.ID,
			analysis.SiteID,
			analysis.UserID,
			analysis.Status,
			analysis.Provider,
			analysis.Model,
			analysis.PromptVersion,
			sqlmock.AnyArg(), // report
			sqlmock.AnyArg(), // raw_response
			sqlmock.AnyArg(), // warnings
			sqlmock.AnyArg(), // created_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), analysis); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateFailureMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	completedAt := time.Now().UTC()

	mock.ExpectExec("UPDATE analyses").
		WithArgs(StatusFailed, ErrorCodeLLMTimeout, "llm analyze: context deadline exceeded", true, sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateFailure(context.Background(), "missing", ErrorCodeLLMTimeout, "llm analyze: context deadline exceeded", true, &completedAt)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDScansReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "site_id", "user_id", "status", "provider", "model", "prompt_version",
		"report", "raw_response", "warnings",
		"error_code", "error_message", "error_retryable",
		"started_at", "completed_at", "created_at", "updated_at",
	}).AddRow(
		"analysis-1", "site-1", "user-1", StatusCompleted, "gemini", "gemini-1.5-flash", "v1",
		[]byte(`{"recommendations": {"feasibility_score": 8}}`), nil, []byte(`["warning one"]`),
		nil, nil, nil,
		now, now, now, now,
	)

	mock.ExpectQuery("SELECT (.+) FROM analyses").WithArgs("analysis-1").WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "analysis-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.Report == nil {
		t.Fatalf("expected report decoded")
	}
	if len(got.Warnings) != 1 || got.Warnings[0] != "warning one" {
		t.Fatalf("expected warnings decoded, got %v", got.Warnings)
	}
	if got.StartedAt == nil || got.CompletedAt == nil {
		t.Fatalf("expected timestamps decoded")
	}
}
