package intake

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"design-gallery-backend/internal/models"
)

var ErrScreenshotTooLarge = errors.New("screenshot exceeds size limit")

// DecodedScreenshot is a screenshot ready for upload to the asset store.
type DecodedScreenshot struct {
	Data     []byte
	Filename string
	MimeType string
}

// DecodeScreenshot decodes the base64 payload, accepting an optional
// "data:<mime>;base64," prefix. A missing MIME type is taken from the data URL
// prefix or sniffed from the content.
func DecodeScreenshot(sc *models.Screenshot, maxBytes int64) (*DecodedScreenshot, error) {
	payload := strings.TrimSpace(sc.Data)
	mimeType := sc.MimeType

	if strings.HasPrefix(payload, "data:") {
		header, data, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, errors.New("malformed data URL")
		}
		if mimeType == "" {
			mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		}
		payload = data
	}

	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return nil, ErrScreenshotTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("screenshot is empty")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, ErrScreenshotTooLarge
	}

	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	filename := path.Base(strings.ReplaceAll(sc.Filename, "\\", "/"))
	if filename == "" || filename == "." || filename == "/" {
		filename = "screenshot"
	}

	return &DecodedScreenshot{Data: data, Filename: filename, MimeType: mimeType}, nil
}
