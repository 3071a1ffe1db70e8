package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/amazon-ynab-sync/internal/api/handlers"
	infraBQ "github.com/dvloznov/amazon-ynab-sync/internal/infra/bigquery"
	"github.com/dvloznov/amazon-ynab-sync/internal/jobs"
	"github.com/dvloznov/amazon-ynab-sync/internal/jobs/inmemory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRunLister implements handlers.RunLister for testing
type MockRunLister struct {
	ListRecentRunsFunc func(ctx context.Context, limit int) ([]*infraBQ.SyncRunRow, error)
}

func (m *MockRunLister) ListRecentRuns(ctx context.Context, limit int) ([]*infraBQ.SyncRunRow, error) {
	if m.ListRecentRunsFunc != nil {
		return m.ListRecentRunsFunc(ctx, limit)
	}
	return nil, nil
}

type testServer struct {
	handler http.Handler
	store   *inmemory.Store
	queue   *inmemory.Queue
}

func newTestServer(t *testing.T, runs handlers.RunLister) *testServer {
	t.Helper()
	log := zerolog.Nop()
	store := inmemory.NewStore()
	queue := inmemory.NewQueue(store)
	t.Cleanup(func() { _ = queue.Close() })

	return &testServer{
		handler: NewRouter(Routes{
			Sync: handlers.NewSyncHandler(queue, log),
			Jobs: handlers.NewJobsHandler(store, log),
			Runs: handlers.NewRunsHandler(runs, log),
		}, "k", log),
		store: store,
		queue: queue,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("X-API-Key", "k")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestStartSync_EnqueuesAndReportsJob(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/sync", `{"order_count": 30, "dry_run": true}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	body := decode(t, rec)
	jobID, _ := body["job_id"].(string)
	require.NotEmpty(t, jobID)
	assert.Equal(t, "pending", body["status"])

	stored, err := s.store.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, 30, stored.Options.OrderCount)
	assert.True(t, stored.Options.DryRun)

	rec = s.do(t, http.MethodGet, "/api/jobs/"+jobID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jobID, decode(t, rec)["job_id"])
}

func TestStartSync_EmptyBody(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/sync", "")
	assert.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
}

func TestStartSync_ConflictWhileInFlight(t *testing.T) {
	s := newTestServer(t, nil)

	require.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/api/sync", "").Code)

	rec := s.do(t, http.MethodPost, "/api/sync", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "A sync is already in progress", decode(t, rec)["error"])
}

func TestStartSync_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/sync", "{not json").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/sync", `{"order_count": -1}`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, s.do(t, http.MethodGet, "/api/sync", "").Code)
}

func TestJobs(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	require.NoError(t, s.store.SaveJob(ctx, &jobs.SyncJob{JobID: "a", Status: jobs.JobStatusCompleted, CreatedAt: time.Unix(100, 0)}))
	require.NoError(t, s.store.SaveJob(ctx, &jobs.SyncJob{JobID: "b", Status: jobs.JobStatusFailed, CreatedAt: time.Unix(200, 0)}))

	rec := s.do(t, http.MethodGet, "/api/jobs?status=failed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/jobs/missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/jobs/", "").Code)
}

func TestRuns(t *testing.T) {
	var gotLimit int
	s := newTestServer(t, &MockRunLister{
		ListRecentRunsFunc: func(ctx context.Context, limit int) ([]*infraBQ.SyncRunRow, error) {
			gotLimit = limit
			return []*infraBQ.SyncRunRow{{
				RunID:   "r1",
				Status:  infraBQ.RunStatusSuccess,
				Updated: bigquery.NullInt64{Int64: 2, Valid: true},
			}}, nil
		},
	})

	rec := s.do(t, http.MethodGet, "/api/runs?limit=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, gotLimit)
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/runs?limit=x", "").Code)
}

func TestRuns_Errors(t *testing.T) {
	unconfigured := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotImplemented, unconfigured.do(t, http.MethodGet, "/api/runs", "").Code)

	failing := newTestServer(t, &MockRunLister{
		ListRecentRunsFunc: func(ctx context.Context, limit int) ([]*infraBQ.SyncRunRow, error) {
			return nil, errors.New("bigquery down")
		},
	})
	assert.Equal(t, http.StatusInternalServerError, failing.do(t, http.MethodGet, "/api/runs", "").Code)
}

func TestHealthAndAuth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
