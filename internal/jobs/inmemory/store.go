package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/amazon-ynab-sync/internal/jobs"
)

// Store is an in-memory implementation of JobStore.
// Data is lost on restart; the sync_runs table is the durable record.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.SyncJob
}

// NewStore creates a new in-memory job store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.SyncJob),
	}
}

// SaveJob saves or updates a copy of job.
func (s *Store) SaveJob(ctx context.Context, job *jobs.SyncJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy

	return nil
}

// GetJob returns a copy of the job with the given ID.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", jobs.ErrJobNotFound, jobID)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// ListJobs returns copies of the matching jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*jobs.SyncJob{}
	for _, job := range s.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobCopy := *job
		result = append(result, &jobCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.SyncJob{}, nil
		}
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Ensure Store implements JobStore interface.
var _ jobs.JobStore = (*Store)(nil)
