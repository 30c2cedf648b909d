package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts generative AI providers for rooftop analysis.
type Client interface {
	AnalyzeRooftop(ctx context.Context, input AnalyzeInput) (json.RawMessage, error)
}

// AnalyzeInput captures the inputs for one rooftop analysis call.
type AnalyzeInput struct {
	Prompt    string
	Image     []byte
	ImageMIME string
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("LLM provider not configured")

// PlaceholderClient is a stub used when no provider credentials are present,
// so the server still boots and analyses fail with a clear error.
type PlaceholderClient struct{}

// AnalyzeRooftop returns ErrNotConfigured.
func (PlaceholderClient) AnalyzeRooftop(ctx context.Context, input AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotConfigured
}
