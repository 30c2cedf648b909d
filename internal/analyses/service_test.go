package analyses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"solar-backend/internal/llm"
	"solar-backend/internal/shared/storage/object"
	"solar-backend/internal/shared/storage/object/local"
	"solar-backend/internal/sites"
)

// Smallest valid PNG header so MIME sniffing sees an image.
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

type staticLLMResponse struct {
	resp string
}

func (s staticLLMResponse) AnalyzeRooftop(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return json.RawMessage(s.resp), nil
}

type timeoutLLM struct{}

func (timeoutLLM) AnalyzeRooftop(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, context.DeadlineExceeded
}

func setupServiceWithSite(t *testing.T, llmClient llm.Client) (*Service, *MemoryRepo, string) {
	t.Helper()
	store := local.New(t.TempDir())
	siteRepo := sites.NewMemoryRepo()
	analysisRepo := NewMemoryRepo()

	userID := "user-1"
	storageKey, _, _, err := store.Save(context.Background(), userID, "roof.png", bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("save image: %v", err)
	}

	site := sites.Site{
		ID:         "site-1",
		UserID:     userID,
		Kind:       sites.KindImage,
		FileName:   "roof.png",
		MimeType:   "image/png",
		SizeBytes:  int64(len(pngBytes)),
		StorageKey: storageKey,
		CreatedAt:  time.Now().UTC(),
	}
	if err := siteRepo.Create(context.Background(), site); err != nil {
		t.Fatalf("create site: %v", err)
	}

	svc := &Service{
		Repo:       analysisRepo,
		SitesRepo:  siteRepo,
		Store:      store,
		LLM:        llmClient,
		Bounds:     DefaultBounds(),
		RetryDelay: time.Millisecond,
	}

	return svc, analysisRepo, site.ID
}

func queueAnalysis(t *testing.T, repo *MemoryRepo, siteID string) Analysis {
	t.Helper()
	analysis := Analysis{
		ID:            "analysis-" + siteID,
		SiteID:        siteID,
		UserID:        "user-1",
		Status:        StatusQueued,
		PromptVersion: "v1",
		CreatedAt:     time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), analysis); err != nil {
		t.Fatalf("create analysis: %v", err)
	}
	return analysis
}

func TestCompleteAsyncSuccess(t *testing.T) {
	svc, repo, siteID := setupServiceWithSite(t, staticLLMResponse{resp: validReportJSON})
	analysis := queueAnalysis(t, repo, siteID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected status completed, got %s (error: %s %s)", got.Status, got.ErrorCode, got.ErrorMessage)
	}
	if got.Report == nil {
		t.Fatalf("expected report to be stored")
	}
	if got.CompletedAt == nil || got.StartedAt == nil {
		t.Fatalf("expected started and completed timestamps")
	}
	if len(got.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", got.Warnings)
	}
}

func TestCompleteAsyncStripsFences(t *testing.T) {
	fenced := "```json\n" + validReportJSON + "\n```"
	svc, repo, siteID := setupServiceWithSite(t, staticLLMResponse{resp: fenced})
	analysis := queueAnalysis(t, repo, siteID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, _ := repo.GetByID(context.Background(), analysis.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("expected status completed for fenced response, got %s (%s)", got.Status, got.ErrorMessage)
	}
}

func TestCompleteAsyncOutOfRangeStillCompletesWithWarnings(t *testing.T) {
	raw := validReportJSON
	raw = replaceOnce(t, raw, `"payback_period_years": 4.0`, `"payback_period_years": 99`)
	svc, repo, siteID := setupServiceWithSite(t, staticLLMResponse{resp: raw})
	analysis := queueAnalysis(t, repo, siteID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, _ := repo.GetByID(context.Background(), analysis.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("expected completed with warnings, got %s (%s)", got.Status, got.ErrorMessage)
	}
	if len(got.Warnings) == 0 {
		t.Fatalf("expected warnings for out-of-range payback")
	}
}

func TestCompleteAsyncRawStoredOnParseFailure(t *testing.T) {
	svc, repo, siteID := setupServiceWithSite(t, staticLLMResponse{resp: "{not-json"})
	analysis := queueAnalysis(t, repo, siteID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, _ := repo.GetByID(context.Background(), analysis.ID)
	if got.Status != StatusFailed {
		t.Fatalf("expected status failed, got %s", got.Status)
	}
	if got.ErrorCode != ErrorCodeReportParse {
		t.Fatalf("expected error code %s, got %s", ErrorCodeReportParse, got.ErrorCode)
	}
	if got.ErrorRetryable {
		t.Fatalf("expected parse failure not retryable")
	}
	rawMap, ok := got.RawResponse.(map[string]any)
	if !ok || rawMap["rawText"] == "" {
		t.Fatalf("expected raw response rawText stored, got %#v", got.RawResponse)
	}
}

func TestCompleteAsyncMissingSectionFails(t *testing.T) {
	svc, repo, siteID := setupServiceWithSite(t, staticLLMResponse{resp: `{"location_analysis": {}}`})
	analysis := queueAnalysis(t, repo, siteID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, _ := repo.GetByID(context.Background(), analysis.ID)
	if got.Status != StatusFailed {
		t.Fatalf("expected status failed, got %s", got.Status)
	}
	if got.ErrorCode != ErrorCodeReportSchema {
		t.Fatalf("expected error code %s, got %s", ErrorCodeReportSchema, got.ErrorCode)
	}
}

func TestCompleteAsyncInvalidRooftopSentinel(t *testing.T) {
	sentinel := `{"error": "Invalid rooftop image", "valid_data": false}`
	svc, repo, siteID := setupServiceWithSite(t, staticLLMResponse{resp: sentinel})
	analysis := queueAnalysis(t, repo, siteID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, _ := repo.GetByID(context.Background(), analysis.ID)
	if got.Status != StatusFailed {
		t.Fatalf("expected status failed, got %s", got.Status)
	}
	if got.ErrorCode != ErrorCodeInvalidRooftop {
		t.Fatalf("expected error code %s, got %s", ErrorCodeInvalidRooftop, got.ErrorCode)
	}
	if got.ErrorRetryable {
		t.Fatalf("expected invalid rooftop not retryable")
	}
}

func TestCompleteAsyncTimeoutExhaustsRetries(t *testing.T) {
	svc, repo, siteID := setupServiceWithSite(t, timeoutLLM{})
	svc.MaxAttempts = 2
	analysis := queueAnalysis(t, repo, siteID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, _ := repo.GetByID(context.Background(), analysis.ID)
	if got.Status != StatusFailed {
		t.Fatalf("expected status failed, got %s", got.Status)
	}
	if got.ErrorCode != ErrorCodeLLMTimeout {
		t.Fatalf("expected error code %s, got %s", ErrorCodeLLMTimeout, got.ErrorCode)
	}
	if !got.ErrorRetryable {
		t.Fatalf("expected retryable true for timeout")
	}
}

type timeoutThenSuccessLLM struct {
	calls int
	resp  string
}

func (t *timeoutThenSuccessLLM) AnalyzeRooftop(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	t.calls++
	if t.calls < 3 {
		return nil, context.DeadlineExceeded
	}
	return json.RawMessage(t.resp), nil
}

func TestCompleteAsyncRetryThenSucceeds(t *testing.T) {
	llmClient := &timeoutThenSuccessLLM{resp: validReportJSON}
	svc, repo, siteID := setupServiceWithSite(t, llmClient)
	svc.MaxAttempts = 3
	analysis := queueAnalysis(t, repo, siteID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, _ := repo.GetByID(context.Background(), analysis.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("expected status completed, got %s (%s)", got.Status, got.ErrorMessage)
	}
	if llmClient.calls != 3 {
		t.Fatalf("expected 3 LLM calls, got %d", llmClient.calls)
	}
}

type failingOpenStore struct{}

func (failingOpenStore) Save(ctx context.Context, userId string, fileName string, r io.Reader) (string, int64, string, error) {
	_ = ctx
	_ = userId
	_ = fileName
	_ = r
	return "", 0, "", errors.New("save not supported")
}

func (failingOpenStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	_ = ctx
	_ = storageKey
	return nil, errors.New("storage open failed")
}

func TestCompleteAsyncStorageError(t *testing.T) {
	siteRepo := sites.NewMemoryRepo()
	analysisRepo := NewMemoryRepo()

	site := sites.Site{
		ID:         "site-1",
		UserID:     "user-1",
		Kind:       sites.KindImage,
		StorageKey: "missing-key",
		CreatedAt:  time.Now().UTC(),
	}
	if err := siteRepo.Create(context.Background(), site); err != nil {
		t.Fatalf("create site: %v", err)
	}

	var store object.ObjectStore = failingOpenStore{}
	svc := &Service{
		Repo:       analysisRepo,
		SitesRepo:  siteRepo,
		Store:      store,
		LLM:        staticLLMResponse{resp: validReportJSON},
		Bounds:     DefaultBounds(),
		RetryDelay: time.Millisecond,
	}
	analysis := queueAnalysis(t, analysisRepo, site.ID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, _ := analysisRepo.GetByID(context.Background(), analysis.ID)
	if got.Status != StatusFailed {
		t.Fatalf("expected status failed, got %s", got.Status)
	}
	if got.ErrorCode != ErrorCodeStorage {
		t.Fatalf("expected error code %s, got %s", ErrorCodeStorage, got.ErrorCode)
	}
	if !got.ErrorRetryable {
		t.Fatalf("expected retryable true for storage error")
	}
}

func TestCompleteAsyncCoordinateSiteSkipsImage(t *testing.T) {
	siteRepo := sites.NewMemoryRepo()
	analysisRepo := NewMemoryRepo()

	lat, lon := 12.97, 77.59
	site := sites.Site{
		ID:        "site-coord",
		UserID:    "user-1",
		Kind:      sites.KindCoordinates,
		Latitude:  &lat,
		Longitude: &lon,
		CreatedAt: time.Now().UTC(),
	}
	if err := siteRepo.Create(context.Background(), site); err != nil {
		t.Fatalf("create site: %v", err)
	}

	svc := &Service{
		Repo:       analysisRepo,
		SitesRepo:  siteRepo,
		Store:      failingOpenStore{}, // must never be opened for coordinate sites
		LLM:        staticLLMResponse{resp: validReportJSON},
		Bounds:     DefaultBounds(),
		RetryDelay: time.Millisecond,
	}
	analysis := queueAnalysis(t, analysisRepo, site.ID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, _ := analysisRepo.GetByID(context.Background(), analysis.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("expected status completed, got %s (%s)", got.Status, got.ErrorMessage)
	}
}

func replaceOnce(t *testing.T, s, old, repl string) string {
	t.Helper()
	replaced := bytes.Replace([]byte(s), []byte(old), []byte(repl), 1)
	if bytes.Equal(replaced, []byte(s)) {
		t.Fatalf("replacement %q not found", old)
	}
	return string(replaced)
}
