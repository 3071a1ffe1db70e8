package bigquery

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/amazon-ynab-sync/internal/amazon"
	"github.com/dvloznov/amazon-ynab-sync/internal/ledger"
	"github.com/dvloznov/amazon-ynab-sync/internal/pipeline"
	"github.com/dvloznov/amazon-ynab-sync/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSyncRunRow(t *testing.T) {
	started := time.Date(2024, 2, 18, 9, 30, 0, 0, time.UTC)

	row := newSyncRunRow("run-1", pipeline.Options{OrderCount: 50, PayeeFilter: "Amazon", DryRun: true}, started)

	assert.Equal(t, "run-1", row.RunID)
	assert.Equal(t, started, row.StartedTS)
	assert.Equal(t, RunStatusRunning, row.Status)
	assert.True(t, row.DryRun)
	assert.Equal(t, int64(50), row.OrderCount)
	assert.Equal(t, "Amazon", row.PayeeFilter)
	assert.False(t, row.FinishedTS.Valid)
}

func TestTruncateError(t *testing.T) {
	assert.Empty(t, truncateError(nil))
	assert.Equal(t, "boom", truncateError(errors.New("boom")))

	long := errors.New(strings.Repeat("x", maxErrorMessage+10))
	assert.Len(t, truncateError(long), maxErrorMessage)
}

func TestSummaryMetadata(t *testing.T) {
	got, err := summaryMetadata(pipeline.Summary{OrderPages: 5, Enriched: 17, LedgerEntries: 9})
	require.NoError(t, err)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal([]byte(got), &decoded))
	assert.Equal(t, map[string]int{"order_pages": 5, "enriched": 17, "ledger_entries": 9}, decoded)
}

func TestNewMemoUpdateRows(t *testing.T) {
	created := time.Date(2024, 2, 18, 10, 0, 0, 0, time.UTC)
	matches := []reconcile.Match{
		{
			Entry: ledger.Entry{ID: "e1", AmountMilliunits: -16010, PayeeName: "Amazon.com", Memo: "Cable; Charger"},
			Transaction: reconcile.EnrichedTransaction{
				Transaction: amazon.Transaction{
					OrderNumber:  "113-1752303-5039465",
					OrderDate:    time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
					PriceInCents: -1601,
					Payee:        "Amazon.com",
				},
				ItemNames: []string{"Cable", "Charger"},
			},
		},
	}

	rows := newMemoUpdateRows("run-1", matches, false, created)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.NotEmpty(t, r.UpdateID)
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, "e1", r.LedgerEntryID)
	assert.Equal(t, int64(-16010), r.AmountMilliunits)
	assert.Equal(t, "113-1752303-5039465", r.OrderNumber)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.February, Day: 15}, r.OrderDate)
	assert.Equal(t, int64(-1601), r.AmountCents)
	assert.Equal(t, int64(2), r.ItemCount)
	assert.Equal(t, "Cable; Charger", r.Memo)
	assert.False(t, r.DryRun)
	assert.Equal(t, created, r.CreatedTS)
}

func TestNewMemoUpdateRows_Empty(t *testing.T) {
	assert.Empty(t, newMemoUpdateRows("run-1", nil, true, time.Now()))
}
