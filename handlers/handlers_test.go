package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytsum/config"
	"ytsum/errors"
	"ytsum/models"
	"ytsum/progress"
)

type fakeSummaries struct {
	summaries map[string]*models.Summary
}

func (f *fakeSummaries) Save(ctx context.Context, s *models.Summary) error { return nil }

func (f *fakeSummaries) Find(ctx context.Context, id string) (*models.Summary, error) {
	if s, ok := f.summaries[id]; ok {
		return s, nil
	}
	return nil, errors.NotFound("fake.Find", nil, "Summary not found")
}

func (f *fakeSummaries) FindByVideoID(ctx context.Context, videoID string) (*models.Summary, error) {
	return nil, errors.NotFound("fake.FindByVideoID", nil, "Summary not found")
}

func (f *fakeSummaries) Reassign(ctx context.Context, summaryID, userID string) (bool, error) {
	return false, nil
}

type fakeAnonymous struct {
	claimed int
	err     error
}

func (f *fakeAnonymous) RecordUse(ctx context.Context, fingerprint, ip, summaryID string) error {
	return nil
}

func (f *fakeAnonymous) Claim(ctx context.Context, fingerprint, userID string) (int, error) {
	return f.claimed, f.err
}

func newTestApp(t *testing.T) (*fiber.App, *progress.Store) {
	t.Helper()

	store, err := progress.NewStore(time.Hour, "")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})

	progressHandler := NewProgressHandler(store, config.PollingConfig{
		BaseInterval:     time.Second,
		MaxInterval:      8 * time.Second,
		Jitter:           250 * time.Millisecond,
		ClientTimeout:    5 * time.Minute,
		SimulatedCap:     95,
		QueuedGraceCount: 3,
	})
	summarizeHandler := NewSummarizeHandler(nil, &fakeSummaries{
		summaries: map[string]*models.Summary{
			"sum-1": {ID: "sum-1", VideoID: "dQw4w9WgXcQ", Summary: "content"},
		},
	})
	claimHandler := NewClaimHandler(&fakeAnonymous{claimed: 2})

	app.Get("/api/progress/config", progressHandler.PollingConfig)
	app.Get("/api/progress/:task_id", progressHandler.Get)
	app.Delete("/api/progress/:task_id", progressHandler.Delete)
	app.Get("/api/summaries/:id", summarizeHandler.GetSummary)
	app.Post("/api/claim", claimHandler.Claim)
	app.Get("/health", HealthCheck)

	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	resp, err := app.Test(req, 2000)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestProgressGet(t *testing.T) {
	app, store := newTestApp(t)

	store.Put(models.ProgressRecord{
		TaskID:   "task-1",
		Progress: 60,
		Stage:    "Analyzing content with AI...",
		Status:   models.StatusProcessing,
	})

	resp, body := doJSON(t, app, http.MethodGet, "/api/progress/task-1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "task-1", body["task_id"])
	assert.Equal(t, float64(60), body["progress"])
	assert.Equal(t, "processing", body["status"])
}

func TestProgressGetUnknown(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/progress/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Task not found", body["error"])
}

func TestProgressDelete(t *testing.T) {
	app, store := newTestApp(t)

	store.Put(models.ProgressRecord{TaskID: "task-1", Status: models.StatusCompleted, Progress: 100})

	resp, body := doJSON(t, app, http.MethodDelete, "/api/progress/task-1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cleaned", body["status"])

	resp, body = doJSON(t, app, http.MethodDelete, "/api/progress/task-1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "not_found", body["status"])
}

func TestPollingConfigEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/progress/config", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1000), body["base_interval_ms"])
	assert.Equal(t, float64(95), body["simulated_cap"])
	assert.Equal(t, float64(3), body["queued_grace_count"])
}

func TestGetSummary(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/summaries/sum-1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "dQw4w9WgXcQ", data["video_id"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/summaries/none", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Summary not found", body["error"])
}

func TestClaim(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/claim",
		`{"fingerprint":"fp","user_id":"user-1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["claimed_count"])
}

func TestHealthCheck(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
