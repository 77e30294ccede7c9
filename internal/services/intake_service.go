package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"design-gallery-backend/internal/intake"
	"design-gallery-backend/internal/models"
	"design-gallery-backend/internal/notify"
	"design-gallery-backend/internal/sanity"
)

// ErrRecordCreate marks the only upstream failure that aborts a submission.
var ErrRecordCreate = errors.New("failed to create submission record")

// ScreenshotWarning is returned to the submitter when the screenshot was dropped.
const ScreenshotWarning = "Your submission was received, but the screenshot could not be uploaded. You can email it to us separately."

// CMS is the part of the Sanity client the intake workflow needs.
type CMS interface {
	UploadImage(ctx context.Context, data []byte, filename, mimeType string) (*sanity.Asset, error)
	LookupStyle(ctx context.Context, slug string) (*sanity.Style, error)
	Create(ctx context.Context, document any) (*sanity.MutateResponse, error)
}

type ChatNotifier interface {
	NotifySubmission(ctx context.Context, styleLabel, submitterName, demoURL string) error
}

type CRMSyncer interface {
	SyncSubmission(ctx context.Context, record notify.CRMRecord) error
}

type SubmitResult struct {
	DocumentID    string
	Warning       string
	StyleResolved bool
	ImageAttached bool
}

type IntakeService struct {
	cms                CMS
	chat               ChatNotifier
	crm                CRMSyncer
	dispatcher         *notify.Dispatcher
	logger             *zap.Logger
	maxScreenshotBytes int64
	now                func() time.Time
}

func NewIntakeService(
	cms CMS,
	chat ChatNotifier,
	crm CRMSyncer,
	dispatcher *notify.Dispatcher,
	logger *zap.Logger,
	maxScreenshotBytes int64,
) *IntakeService {
	return &IntakeService{
		cms:                cms,
		chat:               chat,
		crm:                crm,
		dispatcher:         dispatcher,
		logger:             logger,
		maxScreenshotBytes: maxScreenshotBytes,
		now:                time.Now,
	}
}

// Submit runs the intake workflow for an already validated submission:
// screenshot upload, style resolution, record creation, then notifications.
// Only record creation can fail the call; everything else degrades.
func (s *IntakeService) Submit(ctx context.Context, sub *models.Submission, logger *zap.Logger) (*SubmitResult, error) {
	if logger == nil {
		logger = s.logger
	}
	result := &SubmitResult{}
	submittedAt := s.now().UTC()

	var assetID string
	if sub.Screenshot != nil {
		id, err := s.uploadScreenshot(ctx, sub.Screenshot)
		if err != nil {
			logger.Warn("screenshot upload failed, continuing without image",
				zap.String("code", string(models.CodeUpstreamSideEffect)),
				zap.Error(err))
			result.Warning = ScreenshotWarning
		} else {
			assetID = id
			result.ImageAttached = true
		}
	}

	styleRef, styleTitle := s.resolveStyle(ctx, sub, logger)
	result.StyleResolved = styleRef != nil

	doc := sanity.GallerySubmission{
		ID:                      "submission-" + strings.ToLower(ulid.Make().String()),
		Type:                    sanity.TypeGallerySubmission,
		SubmitterName:           sub.Name,
		SubmitterEmail:          sub.Email,
		StyleRef:                styleRef,
		DemoURL:                 sub.DemoURL,
		AuthenticityExplanation: sub.Authenticity,
		HasPublicDisplayConsent: sub.Consent.True(),
		HasMarketingConsent:     sub.Marketing.True(),
		Status:                  sanity.StatusPending,
		SubmittedAt:             submittedAt.Format(time.RFC3339),
		IsFeatured:              false,
	}
	if assetID != "" {
		doc.Screenshot = sanity.NewImage(assetID, models.StyleLabel(styleTitle, sub.Style)+" demo screenshot")
	}

	res, err := s.cms.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecordCreate, err)
	}
	result.DocumentID = doc.ID
	if len(res.Results) > 0 && res.Results[0].ID != "" {
		result.DocumentID = res.Results[0].ID
	}
	logger.Info("submission record created",
		zap.String("document_id", result.DocumentID),
		zap.String("transaction_id", res.TransactionID),
		zap.Bool("style_resolved", result.StyleResolved),
		zap.Bool("image_attached", result.ImageAttached))

	label := models.StyleLabel(styleTitle, sub.Style)
	s.dispatcher.Run(ctx, "discord", notify.AwaitedNonFatal, func(ctx context.Context) error {
		return s.chat.NotifySubmission(ctx, label, sub.Name, sub.DemoURL)
	})

	record := notify.CRMRecord{
		Name:           sub.Name,
		Email:          sub.Email,
		Style:          sub.Style,
		DemoURL:        sub.DemoURL,
		SubmittedAt:    submittedAt,
		MarketingOptIn: sub.Marketing.True(),
	}
	s.dispatcher.Run(ctx, "airtable", notify.DetachedNonFatal, func(ctx context.Context) error {
		return s.crm.SyncSubmission(ctx, record)
	})

	return result, nil
}

func (s *IntakeService) uploadScreenshot(ctx context.Context, sc *models.Screenshot) (string, error) {
	decoded, err := intake.DecodeScreenshot(sc, s.maxScreenshotBytes)
	if err != nil {
		return "", err
	}

	asset, err := s.cms.UploadImage(ctx, decoded.Data, decoded.Filename, decoded.MimeType)
	if err != nil {
		return "", err
	}

	return asset.ID, nil
}

// resolveStyle returns the style reference and display title. An explicit
// styleId is trusted as is; a slug is looked up and dropped when unknown.
func (s *IntakeService) resolveStyle(ctx context.Context, sub *models.Submission, logger *zap.Logger) (*sanity.Reference, string) {
	if sub.StyleID != "" {
		return sanity.NewReference(sub.StyleID), ""
	}

	style, err := s.cms.LookupStyle(ctx, sub.Style)
	if err != nil {
		logger.Warn("style lookup failed, omitting style reference",
			zap.String("code", string(models.CodeUpstreamSideEffect)),
			zap.String("style", sub.Style),
			zap.Error(err))
		return nil, ""
	}
	if style == nil {
		logger.Info("style not found, omitting style reference", zap.String("style", sub.Style))
		return nil, ""
	}

	return sanity.NewReference(style.ID), style.Title
}

// UpstreamDetails extracts the upstream response body from a record creation error.
func UpstreamDetails(err error) string {
	var apiErr *sanity.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Body
	}
	return err.Error()
}
