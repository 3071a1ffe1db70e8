// Package bigquery keeps the audit trail of sync runs in BigQuery: one
// sync_runs row per run and one memo_updates row per memo written.
package bigquery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/amazon-ynab-sync/internal/pipeline"
	"github.com/dvloznov/amazon-ynab-sync/internal/reconcile"
)

// BigQueryRunRepository records sync runs. It holds a shared BigQuery
// client to avoid creating a new connection for each operation.
type BigQueryRunRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string

	mu sync.Mutex
	// dryRun remembers the mode of each started run so memo rows can be
	// flagged without widening RecordMatches.
	dryRun map[string]bool
}

var _ pipeline.RunRecorder = (*BigQueryRunRepository)(nil)

// NewBigQueryRunRepository creates a repository bound to one dataset.
func NewBigQueryRunRepository(ctx context.Context, projectID, datasetID string) (*BigQueryRunRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryRunRepository: creating client: %w", err)
	}
	return &BigQueryRunRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		dryRun:    make(map[string]bool),
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryRunRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *BigQueryRunRepository) StartRun(ctx context.Context, opts pipeline.Options) (string, error) {
	runID, err := StartSyncRunWithClient(ctx, r.client, r.datasetID, opts)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	r.dryRun[runID] = opts.DryRun
	r.mu.Unlock()
	return runID, nil
}

func (r *BigQueryRunRepository) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	r.forget(runID)
	MarkSyncRunFailedWithClient(ctx, r.client, r.datasetID, runID, runErr)
}

func (r *BigQueryRunRepository) MarkRunSucceeded(ctx context.Context, runID string, summary pipeline.Summary) error {
	r.forget(runID)
	return MarkSyncRunSucceededWithClient(ctx, r.client, r.datasetID, runID, summary)
}

func (r *BigQueryRunRepository) RecordMatches(ctx context.Context, runID string, matches []reconcile.Match) error {
	r.mu.Lock()
	dryRun := r.dryRun[runID]
	r.mu.Unlock()

	rows := newMemoUpdateRows(runID, matches, dryRun, time.Now())
	return InsertMemoUpdatesWithClient(ctx, r.client, r.datasetID, rows)
}

func (r *BigQueryRunRepository) forget(runID string) {
	r.mu.Lock()
	delete(r.dryRun, runID)
	r.mu.Unlock()
}

// ListRecentRuns returns up to limit runs, newest first.
func (r *BigQueryRunRepository) ListRecentRuns(ctx context.Context, limit int) ([]*SyncRunRow, error) {
	return ListRecentSyncRunsWithClient(ctx, r.client, r.projectID, r.datasetID, limit)
}
