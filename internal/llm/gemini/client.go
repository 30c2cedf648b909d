package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"solar-backend/internal/llm"
)

const defaultModel = "gemini-1.5-flash"

// Client calls the Gemini API for rooftop analysis.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client. The API key is required.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// AnalyzeRooftop sends the prompt, plus the site image when present, and
// returns the model's raw JSON response.
func (c *Client) AnalyzeRooftop(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	parts := []*genai.Part{genai.NewPartFromText(input.Prompt)}
	if len(input.Image) > 0 {
		mime := input.ImageMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(input.Image, mime))
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("gemini request: %w", ctx.Err())
		}
		return nil, fmt.Errorf("gemini request: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("gemini response empty content")
	}

	return json.RawMessage(text), nil
}

var _ llm.Client = (*Client)(nil)
