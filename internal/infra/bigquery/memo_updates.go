package bigquery

import (
	"time"

	"cloud.google.com/go/civil"
)

// MemoUpdateRow is one memo the sync wrote to (or, on a dry run, computed
// for) a ledger entry.
type MemoUpdateRow struct {
	UpdateID string `bigquery:"update_id"` // REQUIRED
	RunID    string `bigquery:"run_id"`    // REQUIRED

	LedgerEntryID    string `bigquery:"ledger_entry_id"`   // REQUIRED
	AmountMilliunits int64  `bigquery:"amount_milliunits"` // REQUIRED
	PayeeName        string `bigquery:"payee_name"`        // NULLABLE

	OrderNumber string     `bigquery:"order_number"` // REQUIRED
	OrderDate   civil.Date `bigquery:"order_date"`   // REQUIRED
	AmountCents int64      `bigquery:"amount_cents"` // REQUIRED
	ItemCount   int64      `bigquery:"item_count"`   // REQUIRED
	Memo        string     `bigquery:"memo"`         // REQUIRED
	DryRun      bool       `bigquery:"dry_run"`      // REQUIRED
	CreatedTS   time.Time  `bigquery:"created_ts"`   // REQUIRED
}
