package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"solar-backend/internal/llm"
	"solar-backend/internal/shared/metrics"
	"solar-backend/internal/shared/storage/object"
	"solar-backend/internal/shared/telemetry"
	"solar-backend/internal/sites"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Service contains business logic for analyses.
type Service struct {
	Repo          Repo
	SitesRepo     sites.SitesRepo
	Store         object.ObjectStore
	LLM           llm.Client
	Provider      string
	Model         string
	PromptVersion string
	Bounds        Bounds
	MaxAttempts   int
	RetryDelay    time.Duration
}

// Create enqueues a new analysis and kicks off asynchronous completion.
func (s *Service) Create(ctx context.Context, siteID, userID string) (Analysis, error) {
	if siteID == "" || userID == "" {
		return Analysis{}, errors.New("siteID and userID are required")
	}

	analysis := Analysis{
		ID:            uuid.NewString(),
		SiteID:        siteID,
		UserID:        userID,
		Status:        StatusQueued,
		Provider:      normalizeProvider(s.Provider),
		Model:         s.Model,
		PromptVersion: normalizePromptVersion(s.PromptVersion),
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, analysis); err != nil {
		return Analysis{}, err
	}

	go s.completeAsync(backgroundWithRequestID(ctx), analysis.ID)

	return analysis, nil
}

// Get returns an analysis by ID.
func (s *Service) Get(ctx context.Context, analysisID string) (Analysis, error) {
	if analysisID == "" {
		return Analysis{}, errors.New("analysisID is required")
	}
	return s.Repo.GetByID(ctx, analysisID)
}

// List returns analyses for a user ordered newest-first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Analysis, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

func normalizeProvider(provider string) string {
	if strings.TrimSpace(provider) == "" {
		return "gemini"
	}
	return provider
}

func normalizePromptVersion(version string) string {
	if strings.TrimSpace(version) == "" {
		return "v1"
	}
	return version
}

func (s *Service) completeAsync(ctx context.Context, analysisID string) {
	defer func() {
		if r := recover(); r != nil {
			s.failAnalysis(ctx, analysisID, "", "", fmt.Errorf("panic: %v", r), nil)
		}
	}()

	startedAt := time.Now().UTC()
	if err := s.Repo.UpdateStatus(ctx, analysisID, StatusProcessing, &startedAt); err != nil {
		s.failAnalysis(ctx, analysisID, "", "", fmt.Errorf("set processing failed: %w", err), &startedAt)
		return
	}

	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		s.failAnalysis(ctx, analysisID, "", "", fmt.Errorf("analysis lookup: %w", err), &startedAt)
		return
	}

	metrics.IncAnalysisStarted()
	telemetry.Info("analysis.status", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"user_id":     analysis.UserID,
		"site_id":     analysis.SiteID,
		"analysis_id": analysis.ID,
		"status":      StatusProcessing,
	})

	if s.SitesRepo == nil || s.Store == nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.SiteID, errors.New("missing site store dependencies"), &startedAt)
		return
	}
	if s.LLM == nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.SiteID, errors.New("missing llm client"), &startedAt)
		return
	}

	site, err := s.SitesRepo.GetByID(ctx, analysis.UserID, analysis.SiteID)
	if err != nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.SiteID, fmt.Errorf("site lookup id=%s: %w", analysis.SiteID, err), &startedAt)
		return
	}

	var imageBytes []byte
	if site.Kind == sites.KindImage {
		imageBytes, err = s.loadImage(ctx, site.StorageKey)
		if err != nil {
			s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.SiteID, fmt.Errorf("site %s storage key %s: load image: %w", site.ID, site.StorageKey, err), &startedAt)
			return
		}
	}

	prompt := llm.BuildPrompt(analysis.PromptVersion, llm.SiteContext{
		Latitude:     site.Latitude,
		Longitude:    site.Longitude,
		RoofAreaM2:   site.RoofAreaM2,
		BuildingType: site.BuildingType,
		RoofType:     site.RoofType,
		Floors:       site.Floors,
		RoofAccess:   site.RoofAccess,
		HasImage:     len(imageBytes) > 0,
	})

	requestID := requestIDFromContext(ctx)
	llmClient := newRetryingLLM(s.LLM, s.MaxAttempts, s.RetryDelay, analysisID, requestID)

	raw, err := llmClient.AnalyzeRooftop(ctx, llm.AnalyzeInput{
		Prompt:    prompt,
		Image:     imageBytes,
		ImageMIME: site.MimeType,
	})
	if err != nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.SiteID, fmt.Errorf("llm analyze: %w", err), &startedAt)
		return
	}

	if err := s.storeRaw(ctx, analysisID, raw); err != nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.SiteID, fmt.Errorf("set analysis raw failed: %w", err), &startedAt)
		return
	}

	cleaned := CleanupResponse(string(raw))

	if IsInvalidRooftop([]byte(cleaned)) {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.SiteID, ErrInvalidRooftop, &startedAt)
		return
	}

	report, warnings, err := ValidateReport([]byte(cleaned), s.Bounds)
	if err != nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.SiteID, err, &startedAt)
		return
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.UpdateResult(ctx, analysisID, report, warnings, &completedAt); err != nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.SiteID, fmt.Errorf("set analysis result failed: %w", err), &startedAt)
		return
	}

	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(durationMs(&startedAt, &completedAt))
	telemetry.Info("analysis.status", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"user_id":     analysis.UserID,
		"site_id":     analysis.SiteID,
		"analysis_id": analysis.ID,
		"status":      StatusCompleted,
		"warnings":    len(warnings),
		"duration_ms": durationMs(&startedAt, &completedAt),
	})
}

func (s *Service) failAnalysis(ctx context.Context, analysisID, userID, siteID string, err error, startedAt *time.Time) {
	code, retryable := classifyFailure(err)
	msg := sanitizeError(err)
	completedAt := time.Now().UTC()
	if updateErr := s.Repo.UpdateFailure(context.Background(), analysisID, code, msg, retryable, &completedAt); updateErr != nil {
		telemetry.Error("analysis.fail_update", map[string]any{
			"analysis_id": analysisID,
			"error":       sanitizeError(updateErr),
			"cause":       msg,
		})
	}
	metrics.IncAnalysisFailed()
	if startedAt != nil {
		metrics.ObserveAnalysisDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Warn("analysis.status", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"user_id":     userID,
		"site_id":     siteID,
		"analysis_id": analysisID,
		"status":      StatusFailed,
		"error_code":  code,
		"retryable":   retryable,
		"duration_ms": durationMs(startedAt, &completedAt),
	})
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) (string, bool) {
	if err == nil {
		return ErrorCodeInternal, false
	}
	if errors.Is(err, ErrInvalidRooftop) {
		return ErrorCodeInvalidRooftop, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeLLMTimeout, true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "llm") || strings.Contains(msg, "gemini") || strings.Contains(msg, "openai")) {
		return ErrorCodeLLMTimeout, true
	}
	if strings.Contains(msg, "report parse") {
		return ErrorCodeReportParse, false
	}
	if strings.Contains(msg, "report schema") {
		return ErrorCodeReportSchema, false
	}
	if strings.Contains(msg, "site") || strings.Contains(msg, "storage") || strings.Contains(msg, "analysis raw") || strings.Contains(msg, "analysis result") || strings.Contains(msg, "set processing") || strings.Contains(msg, "analysis lookup") {
		return ErrorCodeStorage, true
	}
	return ErrorCodeInternal, false
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func (s *Service) loadImage(ctx context.Context, storageKey string) ([]byte, error) {
	body, err := s.Store.Open(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

func buildRawPayload(raw json.RawMessage) any {
	if len(raw) == 0 {
		return map[string]any{"rawText": ""}
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		return parsed
	}
	return map[string]any{"rawText": string(raw)}
}

func (s *Service) storeRaw(ctx context.Context, analysisID string, raw json.RawMessage) error {
	return s.Repo.UpdateRaw(ctx, analysisID, buildRawPayload(raw))
}
