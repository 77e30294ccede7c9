package models

import "time"

// ErrorCode categorises failures returned by the intake endpoint.
type ErrorCode string

const (
	CodeMethodNotAllowed     ErrorCode = "method_not_allowed"
	CodeServerMisconfigured  ErrorCode = "server_misconfigured"
	CodeInvalidBody          ErrorCode = "invalid_body"
	CodeMissingFields        ErrorCode = "missing_fields"
	CodeConsentRequired      ErrorCode = "consent_required"
	CodeUpstreamCreateFailed ErrorCode = "upstream_create_failed"
	CodeUpstreamSideEffect   ErrorCode = "upstream_side_effect_failed"
	CodeInternal             ErrorCode = "internal_error"
	CodeDatabaseNotAvailable ErrorCode = "database_not_available"
	CodeVisitorNotIdentified ErrorCode = "visitor_not_identified"
)

type ErrorResponse struct {
	Error   string    `json:"error"`
	Code    ErrorCode `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
	Details string    `json:"details,omitempty"`
	Fields  []string  `json:"fields,omitempty"`
}

type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
	Warning string `json:"warning,omitempty"`
}

type ConsentResponse struct {
	Decided   bool       `json:"decided"`
	Analytics bool       `json:"analytics"`
	Marketing bool       `json:"marketing"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
