package seed_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"design-gallery-backend/internal/sanity"
	"design-gallery-backend/internal/seed"
	"design-gallery-backend/internal/storage"
)

const manifestYAML = `
submitter:
  name: Claude AI
  email: demo@mywebclass.org
demos:
  - style: Glassmorphism
    url: https://example.com/glass
  - style: Isometric Design
    url: https://example.com/iso
  - style: Cyberpunk
    url: https://example.com/existing
  - style: Vaporwave
    url: https://example.com/vapor
    screenshot: vapor
  - style: Futurism
    url: https://example.com/future
`

func TestParseManifest(t *testing.T) {
	m, err := seed.ParseManifest([]byte(manifestYAML))
	require.NoError(t, err)

	assert.Equal(t, "Claude AI", m.Submitter.Name)
	assert.Equal(t, seed.DefaultAuthenticity, m.Submitter.Authenticity)
	require.Len(t, m.Demos, 5)
	assert.Equal(t, "isometric-design", m.Demos[1].Slug())
	assert.Equal(t, "vapor", m.Demos[3].Slug())
}

func TestParseManifest_Defaults(t *testing.T) {
	m, err := seed.ParseManifest([]byte("demos:\n  - style: Swiss\n    url: https://x\n"))
	require.NoError(t, err)
	assert.Equal(t, seed.DefaultSubmitterEmail, m.Submitter.Email)
	assert.Equal(t, seed.DefaultSubmitterName, m.Submitter.Name)
}

func TestParseManifest_ReportsEveryInvalidDemo(t *testing.T) {
	_, err := seed.ParseManifest([]byte("demos:\n  - style: Swiss\n  - url: https://x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "demo 1: url is required")
	assert.Contains(t, err.Error(), "demo 2: style is required")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "swiss-international-style", seed.Slugify("  Swiss   International\tStyle "))
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := seed.RetryWithBackoff(context.Background(), 3, time.Millisecond, func(attempt int) error {
		calls++
		assert.Equal(t, calls, attempt)
		if attempt < 3 {
			return assert.AnError
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_Exhausted(t *testing.T) {
	err := seed.RetryWithBackoff(context.Background(), 3, time.Millisecond, func(int) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
}

func TestRetryWithBackoff_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := seed.RetryWithBackoff(ctx, 3, time.Hour, func(int) error {
		calls++
		return assert.AnError
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

type fakeSource map[string]*storage.Screenshot

func (f fakeSource) Find(ctx context.Context, slug string) (*storage.Screenshot, error) {
	if s, ok := f[slug]; ok {
		return s, nil
	}
	return nil, storage.ErrNotFound
}

type fakeCMS struct {
	mu           sync.Mutex
	uploadFails  map[string]int
	uploadCalls  map[string]int
	created      []sanity.GallerySubmission
	createErrFor string
}

func (f *fakeCMS) ListStyles(ctx context.Context) ([]sanity.Style, error) {
	return []sanity.Style{
		{ID: "s-glass", Title: "Glassmorphism"},
		{ID: "s-iso", Title: "Isometric Design"},
		{ID: "s-cyber", Title: "Cyberpunk"},
		{ID: "s-future", Title: "Futurism"},
	}, nil
}

func (f *fakeCMS) DemoURLsBySubmitter(ctx context.Context, email string) ([]string, error) {
	return []string{"https://example.com/existing"}, nil
}

func (f *fakeCMS) UploadImage(ctx context.Context, data []byte, filename, mimeType string) (*sanity.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls[filename]++
	if f.uploadCalls[filename] <= f.uploadFails[filename] {
		return nil, errors.New("upload timeout")
	}
	return &sanity.Asset{ID: "image-" + filename}, nil
}

func (f *fakeCMS) Create(ctx context.Context, document any) (*sanity.MutateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc := document.(sanity.GallerySubmission)
	if doc.DemoURL == f.createErrFor {
		return nil, errors.New("mutation rejected")
	}
	f.created = append(f.created, doc)
	return &sanity.MutateResponse{Results: []sanity.MutationResult{{ID: "doc-" + doc.StyleRef.Ref}}}, nil
}

func newCMS() *fakeCMS {
	return &fakeCMS{uploadFails: map[string]int{}, uploadCalls: map[string]int{}}
}

func TestPipeline_Run(t *testing.T) {
	m, err := seed.ParseManifest([]byte(manifestYAML))
	require.NoError(t, err)

	cms := newCMS()
	cms.uploadFails["glassmorphism-demo.png"] = 2
	cms.createErrFor = "https://example.com/future"
	source := fakeSource{
		"glassmorphism": {Name: "glassmorphism.png", Data: []byte("\x89PNG\r\n\x1a\n")},
		"vapor":         {Name: "vapor.jpg", Data: []byte("jpg")},
		"futurism":      {Name: "futurism.jpg", Data: []byte("jpg")},
	}

	results, err := seed.NewPipeline(cms, source, zap.NewNop(), seed.WithBackoff(time.Millisecond)).Run(context.Background(), m)
	require.NoError(t, err)

	outcomes := make([]seed.Outcome, len(results))
	for i, r := range results {
		outcomes[i] = r.Outcome
	}
	want := []seed.Outcome{
		seed.OutcomeCreated,
		seed.OutcomeMissingScreenshot,
		seed.OutcomeExists,
		seed.OutcomeUnknownStyle,
		seed.OutcomeCreateFailed,
	}
	if diff := cmp.Diff(want, outcomes); diff != "" {
		t.Fatalf("outcomes mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 3, cms.uploadCalls["glassmorphism-demo.png"])
	assert.Zero(t, cms.uploadCalls["vapor-demo.jpg"], "unknown style is skipped before upload")
	assert.Equal(t, "doc-s-glass", results[0].DocumentID)
	assert.Error(t, results[4].Err)

	require.Len(t, cms.created, 1)
	doc := cms.created[0]
	assert.Equal(t, sanity.StatusApproved, doc.Status)
	assert.Equal(t, doc.SubmittedAt, doc.ReviewedAt)
	assert.Equal(t, "Claude AI", doc.SubmitterName)
	assert.Equal(t, "Glassmorphism design style demo screenshot", doc.Screenshot.Alt)
	assert.Contains(t, doc.AuthenticityExplanation, "of the Glassmorphism design style")
}

func TestPipeline_UploadExhaustionAborts(t *testing.T) {
	m, err := seed.ParseManifest([]byte("demos:\n  - style: Cyberpunk\n    url: https://example.com/new-cyber\n"))
	require.NoError(t, err)

	cms := newCMS()
	cms.uploadFails["cyberpunk-demo.jpg"] = 3
	source := fakeSource{"cyberpunk": {Name: "cyberpunk.jpg", Data: []byte("jpg")}}

	_, err = seed.NewPipeline(cms, source, zap.NewNop(), seed.WithBackoff(time.Millisecond)).Run(context.Background(), m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, 3, cms.uploadCalls["cyberpunk-demo.jpg"])
	assert.Empty(t, cms.created)
}
