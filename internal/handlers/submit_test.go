package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"design-gallery-backend/internal/config"
	"design-gallery-backend/internal/handlers"
	"design-gallery-backend/internal/models"
	"design-gallery-backend/internal/notify"
	"design-gallery-backend/internal/sanity"
	"design-gallery-backend/internal/services"
)

type fakeSubmitter struct {
	calls  int
	got    *models.Submission
	result *services.SubmitResult
	err    error
}

func (f *fakeSubmitter) Submit(ctx context.Context, sub *models.Submission, logger *zap.Logger) (*services.SubmitResult, error) {
	f.calls++
	f.got = sub
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func configured() *config.Config {
	return &config.Config{
		SanityProjectID:    "proj",
		SanityAPIToken:     "token",
		SanityDataset:      "production",
		ScreenshotMaxBytes: 5 << 20,
	}
}

func submitRouter(submitter handlers.Submitter, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := handlers.NewSubmissionsHandler(submitter, cfg, zap.NewNop())
	router.Any("/api/v1/submissions", h.Submit)
	return router
}

func validJSON() string {
	return `{"name":"Alex","email":"alex@example.com","style":"swiss","demoUrl":"https://example.com","authenticity":"made by hand","consent":true}`
}

func do(router http.Handler, method, contentType, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, "/api/v1/submissions", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSubmit_MethodNotAllowed(t *testing.T) {
	sub := &fakeSubmitter{}
	router := submitRouter(sub, configured())

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		w := do(router, method, "application/json", validJSON())
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())
	}
	assert.Zero(t, sub.calls)
}

func TestSubmit_ServerMisconfigured(t *testing.T) {
	sub := &fakeSubmitter{}
	cfg := configured()
	cfg.SanityAPIToken = ""
	router := submitRouter(sub, cfg)

	w := do(router, http.MethodPost, "application/json", "{not json")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "Server configuration error", resp.Error)
	assert.Equal(t, models.CodeServerMisconfigured, resp.Code)
	assert.Zero(t, sub.calls)
}

func TestSubmit_MissingFieldsListsExactlyThose(t *testing.T) {
	router := submitRouter(&fakeSubmitter{}, configured())

	w := do(router, http.MethodPost, "application/json", `{"name":"Alex","style":"  ","consent":"true"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "Missing required fields", resp.Error)
	assert.Equal(t, models.CodeMissingFields, resp.Code)
	assert.Equal(t, []string{"email", "style", "demoUrl", "authenticity"}, resp.Fields)
}

func TestSubmit_ConsentRequired(t *testing.T) {
	router := submitRouter(&fakeSubmitter{}, configured())

	for _, body := range []string{
		`{"name":"A","email":"a@b.c","style":"s","demoUrl":"u","authenticity":"x"}`,
		`{"name":"A","email":"a@b.c","style":"s","demoUrl":"u","authenticity":"x","consent":"false"}`,
		`{"name":"A","email":"a@b.c","style":"s","demoUrl":"u","authenticity":"x","consent":"yes"}`,
		`{"name":"A","email":"a@b.c","style":"s","demoUrl":"u","authenticity":"x","consent":1}`,
		`{"consent":false}`,
	} {
		w := do(router, http.MethodPost, "application/json", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		resp := decodeError(t, w)
		assert.Equal(t, models.CodeConsentRequired, resp.Code, body)
		assert.Equal(t, "Public display consent is required", resp.Error)
	}
}

func TestSubmit_MalformedJSONTreatedAsEmpty(t *testing.T) {
	sub := &fakeSubmitter{}
	router := submitRouter(sub, configured())

	w := do(router, http.MethodPost, "application/json", "{oops")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, models.CodeConsentRequired, resp.Code)
	assert.Equal(t, models.RequiredFields, resp.Fields)
	assert.Nil(t, sub.got)
}

func TestSubmit_UnknownContentTypeFallsBackToEmpty(t *testing.T) {
	router := submitRouter(&fakeSubmitter{}, configured())

	w := do(router, http.MethodPost, "", "garbage")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, models.CodeConsentRequired, resp.Code)
	assert.Equal(t, models.RequiredFields, resp.Fields)
}

func TestSubmit_FormEncoded(t *testing.T) {
	sub := &fakeSubmitter{result: &services.SubmitResult{DocumentID: "submission-1"}}
	router := submitRouter(sub, configured())

	form := url.Values{
		"name":         {"Alex"},
		"email":        {"alex@example.com"},
		"style":        {"swiss"},
		"demoUrl":      {"https://example.com"},
		"authenticity": {"hand made"},
		"consent":      {"true"},
		"marketing":    {"true"},
	}
	w := do(router, http.MethodPost, "application/x-www-form-urlencoded", form.Encode())

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"message":"Submission received successfully","id":"submission-1"}`, w.Body.String())
	require.NotNil(t, sub.got)
	assert.True(t, sub.got.Marketing.True())
}

func TestSubmit_WarningSurfaced(t *testing.T) {
	sub := &fakeSubmitter{result: &services.SubmitResult{DocumentID: "submission-2", Warning: services.ScreenshotWarning}}
	router := submitRouter(sub, configured())

	w := do(router, http.MethodPost, "application/json", validJSON())
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SubmitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, services.ScreenshotWarning, resp.Warning)
}

func TestSubmit_UpstreamCreateFailed(t *testing.T) {
	apiErr := &sanity.APIError{Operation: "mutation", StatusCode: 403, Body: `{"error":"forbidden"}`}
	sub := &fakeSubmitter{err: fmt.Errorf("%w: %w", services.ErrRecordCreate, apiErr)}
	router := submitRouter(sub, configured())

	w := do(router, http.MethodPost, "application/json", validJSON())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "Failed to process submission", resp.Error)
	assert.Equal(t, models.CodeUpstreamCreateFailed, resp.Code)
	assert.Equal(t, `{"error":"forbidden"}`, resp.Details)
}

func TestSubmit_UnexpectedError(t *testing.T) {
	router := submitRouter(&fakeSubmitter{err: errors.New("boom")}, configured())

	w := do(router, http.MethodPost, "application/json", validJSON())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, models.CodeInternal, decodeError(t, w).Code)
}

// fakeSanity serves the three CMS endpoints the intake workflow uses.
func fakeSanity(t *testing.T, uploadStatus int, created chan<- map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/assets/images/"):
			w.WriteHeader(uploadStatus)
			if uploadStatus == http.StatusOK {
				w.Write([]byte(`{"document":{"_id":"image-1"}}`))
			} else {
				w.Write([]byte(`{"error":"upload rejected"}`))
			}
		case strings.Contains(r.URL.Path, "/data/query/"):
			w.Write([]byte(`{"result":null}`))
		case strings.Contains(r.URL.Path, "/data/mutate/"):
			var body struct {
				Mutations []struct {
					Create map[string]any `json:"create"`
				} `json:"mutations"`
			}
			raw, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(raw, &body))
			created <- body.Mutations[0].Create
			fmt.Fprintf(w, `{"transactionId":"tx","results":[{"id":%q,"operation":"create"}]}`, body.Mutations[0].Create["_id"])
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSubmit_EndToEnd_UploadFailureAndHangingCRM(t *testing.T) {
	created := make(chan map[string]any, 1)
	cms := fakeSanity(t, http.StatusInternalServerError, created)

	var webhookHits atomic.Int32
	discord := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webhookHits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(discord.Close)

	release := make(chan struct{})
	airtable := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"records":[]}`))
	}))
	t.Cleanup(airtable.Close)

	logger := zap.NewNop()
	dispatcher := notify.NewDispatcher(logger, 5*time.Second)
	crm, err := notify.NewAirtableNotifier("key", "app1", "Submissions", airtable.URL, 5*time.Second)
	require.NoError(t, err)
	svc := services.NewIntakeService(
		sanity.NewClient(sanity.APIURL("proj", "v2021-10-21", cms.URL), "production", "token", 5*time.Second),
		notify.NewDiscordNotifier(discord.URL, 5*time.Second),
		crm,
		dispatcher,
		logger,
		5<<20,
	)
	router := submitRouter(svc, configured())

	body := `{"name":"Alex","email":"alex@example.com","style":"unknown-style","demoUrl":"https://example.com",` +
		`"authenticity":"hand made","consent":"true","screenshot":"aGVsbG8=","screenshotFilename":"shot.png"}`

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- do(router, http.MethodPost, "application/json", body) }()

	var w *httptest.ResponseRecorder
	select {
	case w = <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("response waited for the CRM")
	}

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.SubmitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, services.ScreenshotWarning, resp.Warning)
	assert.Regexp(t, `^submission-`, resp.ID)

	doc := <-created
	assert.NotContains(t, doc, "screenshot")
	assert.NotContains(t, doc, "styleRef")
	assert.Equal(t, "pending", doc["status"])
	assert.Equal(t, int32(1), webhookHits.Load())

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Wait(ctx))
}
