package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/amazon-ynab-sync/internal/pipeline"
)

var (
	// ErrRunInFlight is returned when a sync is requested while another one
	// is still pending or running.
	ErrRunInFlight = errors.New("a sync run is already in progress")
	// ErrJobNotFound is returned by stores for unknown job IDs.
	ErrJobNotFound = errors.New("job not found")
	// ErrQueueClosed is returned once the queue has been stopped.
	ErrQueueClosed = errors.New("queue is closed")
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
)

// Done reports whether the status is final.
func (s JobStatus) Done() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// SyncJob is one requested sync run.
type SyncJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	Options pipeline.Options `json:"options"`

	Status JobStatus `json:"status"`

	// RunID links the job to its sync_runs row once the run has started.
	RunID string `json:"run_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Message is the user-facing outcome, e.g. "Successfully updated 3 transaction(s)!".
	Message string `json:"message,omitempty"`
	Matched int    `json:"matched"`
	Updated int    `json:"updated"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`
}

// Publisher accepts sync requests.
type Publisher interface {
	PublishSync(ctx context.Context, job *SyncJob) error
	Close() error
}

// Consumer runs queued jobs.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for the in-flight job to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. It may fill in the job's outcome fields; a
// returned error marks the job failed.
type JobHandler func(ctx context.Context, job *SyncJob) error

// JobStore keeps job state for status queries.
type JobStore interface {
	SaveJob(ctx context.Context, job *SyncJob) error
	GetJob(ctx context.Context, jobID string) (*SyncJob, error)
	// ListJobs returns jobs newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*SyncJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
