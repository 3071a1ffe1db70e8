package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/dvloznov/amazon-ynab-sync/internal/jobs"
	"github.com/dvloznov/amazon-ynab-sync/internal/logger"
	"github.com/google/uuid"
)

// Queue is an in-memory sync queue with a single worker. At most one job is
// pending or running at any time; further requests are refused with
// jobs.ErrRunInFlight until it finishes.
type Queue struct {
	jobChan   chan *jobs.SyncJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	store     jobs.JobStore
	closed    bool
	started   bool
	inFlight  string
}

// NewQueue creates a new in-memory sync queue. store may be nil.
func NewQueue(store jobs.JobStore) *Queue {
	return &Queue{
		jobChan:   make(chan *jobs.SyncJob, 1),
		closeChan: make(chan struct{}),
		store:     store,
	}
}

// PublishSync enqueues a sync job. It fills in the job ID, status and
// creation time when they are unset.
func (q *Queue) PublishSync(ctx context.Context, job *jobs.SyncJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return jobs.ErrQueueClosed
	}
	if q.inFlight != "" {
		return jobs.ErrRunInFlight
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	job.Status = jobs.JobStatusPending
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return err
		}
	}

	// The worker gets its own copy so the caller can keep reading job.
	// The buffer holds one job and nothing else can be in flight, so this
	// never blocks.
	queued := *job
	q.jobChan <- &queued
	q.inFlight = job.JobID
	return nil
}

// InFlight returns the ID of the pending or running job, if any.
func (q *Queue) InFlight() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight, q.inFlight != ""
}

// Start launches the worker.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return jobs.ErrQueueClosed
	}
	if q.started {
		return nil
	}
	q.started = true

	q.wg.Add(1)
	go q.worker(ctx, handler)
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			q.processJob(ctx, job, handler)
		}
	}
}

// processJob runs one job. Sync runs are not retried: the failures they
// report (no budgets, wrong page) need a person to act first.
func (q *Queue) processJob(ctx context.Context, job *jobs.SyncJob, handler jobs.JobHandler) {
	log := logger.FromContext(ctx).With().Str("job_id", job.JobID).Logger()
	ctx = logger.WithContext(ctx, log)

	defer func() {
		q.mu.Lock()
		q.inFlight = ""
		q.mu.Unlock()
	}()

	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	q.save(ctx, job)

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt
	if err != nil {
		job.Status = jobs.JobStatusFailed
		job.Error = err.Error()
		log.Error().Err(err).Msg("Sync job failed")
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		log.Info().Str("message", job.Message).Msg("Sync job completed")
	}
	q.save(ctx, job)
}

func (q *Queue) save(ctx context.Context, job *jobs.SyncJob) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Failed to save job state")
	}
}

// Stop stops the queue and waits for the running job, if any, to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
