package analyses

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRooftop = errors.New("invalid rooftop image")
)

const (
	ErrorCodeValidation     = "VALIDATION_ERROR"
	ErrorCodeLLMTimeout     = "LLM_TIMEOUT"
	ErrorCodeReportParse    = "REPORT_PARSE"
	ErrorCodeReportSchema   = "REPORT_SCHEMA"
	ErrorCodeInvalidRooftop = "INVALID_ROOFTOP"
	ErrorCodeStorage        = "STORAGE_ERROR"
	ErrorCodeInternal       = "INTERNAL_ERROR"
)
