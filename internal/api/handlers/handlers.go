package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dvloznov/amazon-ynab-sync/internal/api/middleware"
	infraBQ "github.com/dvloznov/amazon-ynab-sync/internal/infra/bigquery"
	"github.com/dvloznov/amazon-ynab-sync/internal/jobs"
	"github.com/dvloznov/amazon-ynab-sync/internal/pipeline"
	"github.com/rs/zerolog"
)

const maxRunsLimit = 100

// SyncHandler starts sync runs.
type SyncHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(publisher jobs.Publisher, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		publisher: publisher,
		log:       log,
	}
}

// StartSync handles POST /api/sync. The body is optional; omitted fields
// take the run defaults.
func (h *SyncHandler) StartSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderCount  int    `json:"order_count"`
		PayeeFilter string `json:"payee_filter"`
		DryRun      bool   `json:"dry_run"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OrderCount < 0 {
		middleware.WriteError(w, http.StatusBadRequest, "order_count must not be negative")
		return
	}

	job := &jobs.SyncJob{
		Options: pipeline.Options{
			OrderCount:  req.OrderCount,
			PayeeFilter: req.PayeeFilter,
			DryRun:      req.DryRun,
		},
	}

	if err := h.publisher.PublishSync(r.Context(), job); err != nil {
		if errors.Is(err, jobs.ErrRunInFlight) {
			middleware.WriteError(w, http.StatusConflict, "A sync is already in progress")
			return
		}
		h.log.Error().Err(err).Msg("Failed to enqueue sync job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue sync job")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Bool("dry_run", req.DryRun).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("Sync job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// RunLister lists recorded sync runs.
type RunLister interface {
	ListRecentRuns(ctx context.Context, limit int) ([]*infraBQ.SyncRunRow, error)
}

// RunsHandler serves the run audit log.
type RunsHandler struct {
	runs RunLister
	log  zerolog.Logger
}

// NewRunsHandler creates a new runs handler. runs may be nil when no audit
// log is configured.
func NewRunsHandler(runs RunLister, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{
		runs: runs,
		log:  log,
	}
}

// ListRuns handles GET /api/runs
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		middleware.WriteError(w, http.StatusNotImplemented, "Run audit log is not configured")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.runs.ListRecentRuns(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []*infraBQ.SyncRunRow{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}
