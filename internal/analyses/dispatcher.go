package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"solar-backend/internal/llm"
	"solar-backend/internal/shared/metrics"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 2 * time.Second
)

// retryingLLM wraps an llm.Client with a bounded retry loop. Every provider
// error is retried up to the attempt budget with a fixed delay between calls.
// Only a missing client configuration or a cancelled context stops the loop
// early; exhaustion returns the last error.
type retryingLLM struct {
	base        llm.Client
	maxAttempts int
	delay       time.Duration
	requestID   string
	analysisID  string
}

func newRetryingLLM(base llm.Client, maxAttempts int, delay time.Duration, analysisID, requestID string) llm.Client {
	if base == nil {
		return nil
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return retryingLLM{
		base:        base,
		maxAttempts: maxAttempts,
		delay:       delay,
		requestID:   requestID,
		analysisID:  analysisID,
	}
}

func (r retryingLLM) AnalyzeRooftop(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		resp, err := r.base.AnalyzeRooftop(ctx, input)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if errors.Is(err, llm.ErrNotConfigured) || attempt == r.maxAttempts {
			return nil, err
		}

		metrics.IncLLMRetry()
		log.Printf("llm retry attempt=%d request_id=%s analysis_id=%s error=%s", attempt, r.requestID, r.analysisID, sanitizeError(err))
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
