package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/amazon-ynab-sync/internal/reconcile"
	"github.com/google/uuid"
)

const memoUpdatesTable = "memo_updates"

// newMemoUpdateRows maps matches to rows, one per ledger entry.
func newMemoUpdateRows(runID string, matches []reconcile.Match, dryRun bool, created time.Time) []*MemoUpdateRow {
	rows := make([]*MemoUpdateRow, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, &MemoUpdateRow{
			UpdateID:         uuid.NewString(),
			RunID:            runID,
			LedgerEntryID:    m.Entry.ID,
			AmountMilliunits: m.Entry.AmountMilliunits,
			PayeeName:        m.Entry.PayeeName,
			OrderNumber:      m.Transaction.OrderNumber,
			OrderDate:        civil.DateOf(m.Transaction.OrderDate),
			AmountCents:      m.Transaction.PriceInCents,
			ItemCount:        int64(len(m.Transaction.ItemNames)),
			Memo:             m.Entry.Memo,
			DryRun:           dryRun,
			CreatedTS:        created,
		})
	}
	return rows
}

// InsertMemoUpdatesWithClient streams rows into <dataset>.memo_updates.
func InsertMemoUpdatesWithClient(ctx context.Context, client *bigquery.Client, datasetID string, rows []*MemoUpdateRow) error {
	if len(rows) == 0 {
		return nil
	}

	inserter := client.Dataset(datasetID).Table(memoUpdatesTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertMemoUpdates: inserting rows: %w", err)
	}
	return nil
}
