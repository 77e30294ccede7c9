package intake

import (
	"strings"

	"design-gallery-backend/internal/models"
)

const (
	MessageMissingFields   = "Missing required fields"
	MessageConsentRequired = "Public display consent is required"
)

// ValidationError describes why a submission was rejected with 400.
type ValidationError struct {
	Code    models.ErrorCode
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

// MissingFields returns every required field that is empty, in
// models.RequiredFields order.
func MissingFields(s *models.Submission) []string {
	var missing []string
	for _, field := range models.RequiredFields {
		if strings.TrimSpace(s.Field(field)) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// Validate checks required fields first and public-display consent second.
// Consent must be the literal true; when it is not, the consent error is
// returned and still lists any missing fields.
func Validate(s *models.Submission) *ValidationError {
	missing := MissingFields(s)

	if !s.Consent.True() {
		return &ValidationError{
			Code:    models.CodeConsentRequired,
			Message: MessageConsentRequired,
			Fields:  missing,
		}
	}

	if len(missing) > 0 {
		return &ValidationError{
			Code:    models.CodeMissingFields,
			Message: MessageMissingFields,
			Fields:  missing,
		}
	}

	return nil
}
