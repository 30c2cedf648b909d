package analyses

import "time"

// Analysis represents a rooftop feasibility analysis job.
type Analysis struct {
	ID             string         `json:"id"`
	SiteID         string         `json:"siteId"`
	UserID         string         `json:"userId"`
	Status         string         `json:"status"`
	Provider       string         `json:"provider"`
	Model          string         `json:"model"`
	PromptVersion  string         `json:"promptVersion"`
	Report         map[string]any `json:"report,omitempty"`
	RawResponse    any            `json:"rawResponse,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
	ErrorCode      string         `json:"errorCode,omitempty"`
	ErrorMessage   string         `json:"errorMessage,omitempty"`
	ErrorRetryable bool           `json:"errorRetryable,omitempty"`
	StartedAt      *time.Time     `json:"startedAt,omitempty"`
	CompletedAt    *time.Time     `json:"completedAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
