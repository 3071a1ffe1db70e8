// Package api is the HTTP surface for starting sync runs and checking on them.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/amazon-ynab-sync/internal/api/handlers"
	"github.com/dvloznov/amazon-ynab-sync/internal/api/middleware"
	"github.com/rs/zerolog"
)

// Routes bundles the handlers the router dispatches to.
type Routes struct {
	Sync *handlers.SyncHandler
	Jobs *handlers.JobsHandler
	Runs *handlers.RunsHandler
}

// NewRouter builds the mux and wraps it in the middleware chain.
func NewRouter(routes Routes, apiKey string, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			routes.Sync.StartSync(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			routes.Jobs.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		routes.Jobs.GetJob(w, r, jobID)
	})

	mux.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			routes.Runs.ListRuns(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(
					middleware.Auth(apiKey)(mux),
				),
			),
		),
	)
}
