package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

// Run statuses stored in sync_runs.status.
const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

type SyncRunRow struct {
	RunID string `bigquery:"run_id"` // REQUIRED

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	Status       string `bigquery:"status"`        // REQUIRED
	ErrorMessage string `bigquery:"error_message"` // NULLABLE

	DryRun      bool   `bigquery:"dry_run"`      // REQUIRED
	OrderCount  int64  `bigquery:"order_count"`  // REQUIRED
	PayeeFilter string `bigquery:"payee_filter"` // REQUIRED

	BudgetID   bigquery.NullString `bigquery:"budget_id"`   // NULLABLE
	BudgetName bigquery.NullString `bigquery:"budget_name"` // NULLABLE

	Transactions bigquery.NullInt64 `bigquery:"transactions"` // NULLABLE
	Orders       bigquery.NullInt64 `bigquery:"orders"`       // NULLABLE
	Matched      bigquery.NullInt64 `bigquery:"matched"`      // NULLABLE
	Updated      bigquery.NullInt64 `bigquery:"updated"`      // NULLABLE

	Metadata bigquery.NullJSON `bigquery:"metadata"` // NULLABLE
}
