// Package intake turns raw gallery submission requests into validated
// models.Submission values. Nothing in here performs I/O.
package intake

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/url"
	"strings"

	"design-gallery-backend/internal/models"
)

type bodyKind int

const (
	bodyUnknown bodyKind = iota
	bodyJSON
	bodyForm
)

func kindOf(contentType string) bodyKind {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(contentType)
	}
	switch {
	case strings.Contains(mediaType, "application/json"):
		return bodyJSON
	case strings.Contains(mediaType, "application/x-www-form-urlencoded"):
		return bodyForm
	}
	return bodyUnknown
}

// Parse decodes a submission according to its declared content type.
//
// JSON and URL-encoded bodies are decoded as such; a body with a missing or
// unrecognised content type is tried as JSON. Input that cannot be decoded
// becomes an empty submission, so the request is then rejected for missing
// fields rather than for its encoding.
func Parse(body []byte, contentType string) models.Submission {
	if kindOf(contentType) == bodyForm {
		// ParseQuery keeps every pair it could decode alongside the error.
		form, _ := url.ParseQuery(string(body))
		values := make(map[string]string, len(form))
		for key := range form {
			values[key] = form.Get(key)
		}
		return fromValues(values)
	}

	values, err := decodeJSON(body)
	if err != nil {
		return models.Submission{}
	}
	return fromValues(values)
}

func decodeJSON(body []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("body is not a JSON object")
	}

	values := make(map[string]string, len(raw))
	for key, value := range raw {
		values[key] = scalar(value)
	}
	return values, nil
}

// scalar flattens a decoded JSON value to its form-field representation.
// Objects, arrays and null become empty.
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case json.Number:
		return t.String()
	}
	return ""
}

func fromValues(values map[string]string) models.Submission {
	s := models.Submission{
		Name:         values["name"],
		Email:        values["email"],
		Style:        values["style"],
		StyleID:      values["styleId"],
		DemoURL:      values["demoUrl"],
		Authenticity: values["authenticity"],
		Consent:      models.Flag(values["consent"]),
		Marketing:    models.Flag(values["marketing"]),
	}
	if data := values["screenshot"]; data != "" {
		s.Screenshot = &models.Screenshot{
			Data:     data,
			Filename: values["screenshotFilename"],
			MimeType: values["screenshotMimeType"],
		}
	}
	return s
}
