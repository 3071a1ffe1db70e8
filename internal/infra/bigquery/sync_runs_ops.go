package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/amazon-ynab-sync/internal/logger"
	"github.com/dvloznov/amazon-ynab-sync/internal/pipeline"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const (
	syncRunsTable    = "sync_runs"
	maxErrorMessage  = 2000
	defaultRunsLimit = 20
)

// newSyncRunRow builds the RUNNING row a run starts with.
func newSyncRunRow(runID string, opts pipeline.Options, started time.Time) *SyncRunRow {
	return &SyncRunRow{
		RunID:       runID,
		StartedTS:   started,
		Status:      RunStatusRunning,
		DryRun:      opts.DryRun,
		OrderCount:  int64(opts.OrderCount),
		PayeeFilter: opts.PayeeFilter,
	}
}

func truncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return msg
}

// summaryMetadata is the JSON stored in sync_runs.metadata on success.
func summaryMetadata(s pipeline.Summary) (string, error) {
	b, err := json.Marshal(struct {
		OrderPages    int `json:"order_pages"`
		Enriched      int `json:"enriched"`
		LedgerEntries int `json:"ledger_entries"`
	}{s.OrderPages, s.Enriched, s.LedgerEntries})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// StartSyncRunWithClient inserts a new row into <dataset>.sync_runs with
// status=RUNNING and returns the generated run_id.
func StartSyncRunWithClient(ctx context.Context, client *bigquery.Client, datasetID string, opts pipeline.Options) (string, error) {
	row := newSyncRunRow(uuid.NewString(), opts, time.Now())

	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			run_id,
			started_ts,
			status,
			dry_run,
			order_count,
			payee_filter
		)
		VALUES (
			@run_id,
			@started_ts,
			@status,
			@dry_run,
			@order_count,
			@payee_filter
		)
	`, datasetID, syncRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: row.RunID},
		{Name: "started_ts", Value: row.StartedTS},
		{Name: "status", Value: row.Status},
		{Name: "dry_run", Value: row.DryRun},
		{Name: "order_count", Value: row.OrderCount},
		{Name: "payee_filter", Value: row.PayeeFilter},
	}

	if err := runDML(ctx, q); err != nil {
		return "", fmt.Errorf("StartSyncRun: %w", err)
	}
	return row.RunID, nil
}

// MarkSyncRunFailedWithClient sets status=FAILED, finished_ts and
// error_message. Failures are logged, not returned.
func MarkSyncRunFailedWithClient(ctx context.Context, client *bigquery.Client, datasetID, runID string, runErr error) {
	log := logger.FromContext(ctx)

	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, datasetID, syncRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: RunStatusFailed},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: truncateError(runErr)},
		{Name: "run_id", Value: runID},
	}

	if err := runDML(ctx, q); err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkSyncRunFailed: update failed")
	}
}

// MarkSyncRunSucceededWithClient sets status=SUCCESS, finished_ts and the
// run's counts.
func MarkSyncRunSucceededWithClient(ctx context.Context, client *bigquery.Client, datasetID, runID string, summary pipeline.Summary) error {
	metadata, err := summaryMetadata(summary)
	if err != nil {
		return fmt.Errorf("MarkSyncRunSucceeded: encoding metadata: %w", err)
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = "",
		    budget_id = @budget_id,
		    budget_name = @budget_name,
		    transactions = @transactions,
		    orders = @orders,
		    matched = @matched,
		    updated = @updated,
		    metadata = PARSE_JSON(@metadata)
		WHERE run_id = @run_id
	`, datasetID, syncRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: RunStatusSuccess},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "budget_id", Value: summary.BudgetID},
		{Name: "budget_name", Value: summary.BudgetName},
		{Name: "transactions", Value: summary.Transactions},
		{Name: "orders", Value: summary.Orders},
		{Name: "matched", Value: summary.Matched},
		{Name: "updated", Value: summary.Updated},
		{Name: "metadata", Value: metadata},
		{Name: "run_id", Value: runID},
	}

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("MarkSyncRunSucceeded: %w", err)
	}
	return nil
}

// ListRecentSyncRunsWithClient returns the most recent runs, newest first.
func ListRecentSyncRunsWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string, limit int) ([]*SyncRunRow, error) {
	if limit <= 0 {
		limit = defaultRunsLimit
	}

	q := client.Query(fmt.Sprintf(`
		SELECT
			run_id,
			started_ts,
			finished_ts,
			status,
			COALESCE(error_message, "") AS error_message,
			dry_run,
			order_count,
			payee_filter,
			budget_id,
			budget_name,
			transactions,
			orders,
			matched,
			updated,
			metadata
		FROM `+"`%s.%s.%s`"+`
		ORDER BY started_ts DESC
		LIMIT @limit
	`, projectID, datasetID, syncRunsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRecentSyncRuns: query read: %w", err)
	}

	var rows []*SyncRunRow
	for {
		var r SyncRunRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRecentSyncRuns: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// runDML runs a statement and waits for it to finish.
func runDML(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
