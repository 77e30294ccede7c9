package seed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"design-gallery-backend/internal/sanity"
	"design-gallery-backend/internal/storage"
)

const (
	UploadAttempts = 3
	UploadBackoff  = 2 * time.Second
	DefaultWorkers = 2
)

// CMS is the part of the Sanity client the pipeline needs.
type CMS interface {
	ListStyles(ctx context.Context) ([]sanity.Style, error)
	DemoURLsBySubmitter(ctx context.Context, email string) ([]string, error)
	UploadImage(ctx context.Context, data []byte, filename, mimeType string) (*sanity.Asset, error)
	Create(ctx context.Context, document any) (*sanity.MutateResponse, error)
}

type Outcome string

const (
	OutcomeCreated           Outcome = "created"
	OutcomeExists            Outcome = "exists"
	OutcomeMissingScreenshot Outcome = "missing_screenshot"
	OutcomeUnknownStyle      Outcome = "unknown_style"
	OutcomeCreateFailed      Outcome = "create_failed"
)

type Result struct {
	Style      string
	URL        string
	Outcome    Outcome
	DocumentID string
	Err        error
}

type Pipeline struct {
	cms     CMS
	source  storage.Source
	logger  *zap.Logger
	workers int
	backoff time.Duration
	now     func() time.Time
}

type Option func(*Pipeline)

func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithBackoff sets the base of the linear upload backoff.
func WithBackoff(d time.Duration) Option {
	return func(p *Pipeline) { p.backoff = d }
}

func NewPipeline(cms CMS, source storage.Source, logger *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cms:     cms,
		source:  source,
		logger:  logger,
		workers: DefaultWorkers,
		backoff: UploadBackoff,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run seeds every demo in the manifest. Demos that already exist, lack a
// screenshot or name an unknown style are skipped. An upload that fails all
// attempts aborts the run; a failed create is recorded and the run continues.
func (p *Pipeline) Run(ctx context.Context, m *Manifest) ([]Result, error) {
	styles, err := p.cms.ListStyles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list styles: %w", err)
	}
	styleIDs := make(map[string]string, len(styles))
	for _, s := range styles {
		styleIDs[strings.ToLower(s.Title)] = s.ID
	}

	existing, err := p.cms.DemoURLsBySubmitter(ctx, m.Submitter.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing demos: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, u := range existing {
		seen[u] = true
	}

	results := make([]Result, len(m.Demos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, demo := range m.Demos {
		duplicate := seen[demo.URL]
		seen[demo.URL] = true

		if duplicate {
			p.logger.Info("demo already exists, skipping", zap.String("style", demo.Style), zap.String("url", demo.URL))
			results[i] = Result{Style: demo.Style, URL: demo.URL, Outcome: OutcomeExists}
			continue
		}

		g.Go(func() error {
			res, err := p.seedOne(gctx, m.Submitter, demo, styleIDs)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (p *Pipeline) seedOne(ctx context.Context, submitter Submitter, demo Demo, styleIDs map[string]string) (Result, error) {
	res := Result{Style: demo.Style, URL: demo.URL}
	logger := p.logger.With(zap.String("style", demo.Style))
	slug := demo.Slug()

	styleID, ok := styleIDs[strings.ToLower(demo.Style)]
	if !ok {
		logger.Warn("style not found, skipping")
		res.Outcome = OutcomeUnknownStyle
		return res, nil
	}

	shot, err := p.source.Find(ctx, slug)
	if errors.Is(err, storage.ErrNotFound) {
		logger.Warn("screenshot not found, skipping", zap.String("slug", slug))
		res.Outcome = OutcomeMissingScreenshot
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("%s: %w", demo.Style, err)
	}

	filename := slug + "-demo" + path.Ext(shot.Name)
	var asset *sanity.Asset
	err = RetryWithBackoff(ctx, UploadAttempts, p.backoff, func(attempt int) error {
		var err error
		asset, err = p.cms.UploadImage(ctx, shot.Data, filename, http.DetectContentType(shot.Data))
		if err != nil {
			logger.Warn("screenshot upload failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return res, fmt.Errorf("upload %s: %w", filename, err)
	}
	logger.Info("screenshot uploaded", zap.String("asset_id", asset.ID))

	now := p.now().UTC().Format(time.RFC3339)
	doc := sanity.GallerySubmission{
		Type:                    sanity.TypeGallerySubmission,
		SubmitterName:           submitter.Name,
		SubmitterEmail:          submitter.Email,
		StyleRef:                sanity.NewReference(styleID),
		DemoURL:                 demo.URL,
		Screenshot:              sanity.NewImage(asset.ID, demo.Style+" design style demo screenshot"),
		AuthenticityExplanation: authenticity(submitter.Authenticity, demo.Style),
		HasPublicDisplayConsent: true,
		HasMarketingConsent:     true,
		Status:                  sanity.StatusApproved,
		SubmittedAt:             now,
		ReviewedAt:              now,
	}

	created, err := p.cms.Create(ctx, doc)
	if err != nil {
		logger.Error("failed to create submission", zap.Error(err))
		res.Outcome = OutcomeCreateFailed
		res.Err = err
		return res, nil
	}
	res.Outcome = OutcomeCreated
	if len(created.Results) > 0 {
		res.DocumentID = created.Results[0].ID
	}
	logger.Info("submission created", zap.String("document_id", res.DocumentID))
	return res, nil
}

func authenticity(template, style string) string {
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, style)
	}
	return template
}
