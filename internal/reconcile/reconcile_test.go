package reconcile

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/amazon-ynab-sync/internal/amazon"
	"github.com/dvloznov/amazon-ynab-sync/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, time.February, 17, 0, 0, 0, 0, time.UTC)

func tx(order string, cents int64) amazon.Transaction {
	return amazon.Transaction{OrderNumber: order, OrderDate: day, PriceInCents: cents, Payee: "Amazon.com"}
}

func enriched(order string, cents int64, names ...string) EnrichedTransaction {
	return EnrichedTransaction{Transaction: tx(order, cents), ItemNames: names}
}

func TestEnrich(t *testing.T) {
	txs := []amazon.Transaction{tx("A", -1011), tx("B", -500), tx("C", -250)}
	orders := []amazon.Order{
		{OrderNumber: "C", ItemNames: []string{"Cable"}},
		{OrderNumber: "A", ItemNames: []string{"Apple", "Avocado"}},
	}

	got := Enrich(context.Background(), txs, orders)

	assert.Equal(t, []EnrichedTransaction{
		enriched("A", -1011, "Apple", "Avocado"),
		enriched("C", -250, "Cable"),
	}, got)
}

func TestEnrich_DuplicateOrderNumberLastWriteWins(t *testing.T) {
	orders := []amazon.Order{
		{OrderNumber: "A", ItemNames: []string{"first"}},
		{OrderNumber: "A", ItemNames: []string{"second"}},
	}

	got := Enrich(context.Background(), []amazon.Transaction{tx("A", -100)}, orders)

	require.Len(t, got, 1)
	assert.Equal(t, []string{"second"}, got[0].ItemNames)
}

func TestEnrich_DoesNotAliasOrderItems(t *testing.T) {
	orders := []amazon.Order{{OrderNumber: "A", ItemNames: []string{"x"}}}
	got := Enrich(context.Background(), []amazon.Transaction{tx("A", -1)}, orders)

	got[0].ItemNames[0] = "changed"
	assert.Equal(t, "x", orders[0].ItemNames[0])
}

func TestFilterByPayee(t *testing.T) {
	entries := []ledger.Entry{
		{ID: "1", PayeeName: "Amazon.com"},
		{ID: "2", PayeeName: "AMZN Mktp US"},
		{ID: "3", PayeeName: "Amazon Prime"},
		{ID: "4", PayeeName: "amazon lowercase"},
		{ID: "5"},
	}

	got := FilterByPayee(entries, DefaultPayeeFilter)

	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestMatchLedgerEntries(t *testing.T) {
	txs := []EnrichedTransaction{
		enriched("A", -1011, "Widget", "Gadget"),
		enriched("B", -2500, "Book"),
	}
	entries := []ledger.Entry{
		{ID: "l1", AmountMilliunits: -10110, PayeeName: "Amazon.com", Memo: "old"},
		{ID: "l2", AmountMilliunits: -99990, PayeeName: "Amazon.com"},
		{ID: "l3", AmountMilliunits: -25000, PayeeName: "Amazon.com"},
	}

	got := MatchLedgerEntries(context.Background(), txs, entries)

	require.Len(t, got, 2)
	assert.Equal(t, "l1", got[0].Entry.ID)
	assert.Equal(t, "Widget; Gadget", got[0].Entry.Memo)
	assert.Equal(t, "A", got[0].Transaction.OrderNumber)
	assert.Equal(t, "l3", got[1].Entry.ID)
	assert.Equal(t, "Book", got[1].Entry.Memo)

	assert.Equal(t, "old", entries[0].Memo, "input entries must not be mutated")
	assert.Equal(t, []string{"l1", "l3"}, []string{Entries(got)[0].ID, Entries(got)[1].ID})
}

func TestMatchLedgerEntries_SubCentAmountNeverMatches(t *testing.T) {
	txs := []EnrichedTransaction{enriched("A", -1011, "Widget")}
	entries := []ledger.Entry{{ID: "l1", AmountMilliunits: -10111}}

	assert.Empty(t, MatchLedgerEntries(context.Background(), txs, entries))
}

func TestMatchLedgerEntries_DuplicateAmountLastWriteWins(t *testing.T) {
	txs := []EnrichedTransaction{
		enriched("first", -1000, "Dropped item"),
		enriched("second", -1000, "Kept item"),
	}
	entries := []ledger.Entry{{ID: "l1", AmountMilliunits: -10000}}

	got := MatchLedgerEntries(context.Background(), txs, entries)

	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Transaction.OrderNumber)
	assert.Equal(t, "Kept item", got[0].Entry.Memo)
}

func TestMatchLedgerEntries_OneChargeManyEntries(t *testing.T) {
	txs := []EnrichedTransaction{enriched("A", -500, "Thing")}
	entries := []ledger.Entry{
		{ID: "l1", AmountMilliunits: -5000},
		{ID: "l2", AmountMilliunits: -5000},
	}

	got := MatchLedgerEntries(context.Background(), txs, entries)

	require.Len(t, got, 2)
	assert.Equal(t, "Thing", got[0].Entry.Memo)
	assert.Equal(t, "Thing", got[1].Entry.Memo)
}

func TestCentsFromMilliunits(t *testing.T) {
	tests := []struct {
		in     int64
		want   int64
		wantOK bool
	}{
		{-10110, -1011, true},
		{0, 0, true},
		{25000, 2500, true},
		{-10111, 0, false},
		{5, 0, false},
	}
	for _, tt := range tests {
		got, ok := CentsFromMilliunits(tt.in)
		assert.Equal(t, tt.wantOK, ok, "CentsFromMilliunits(%d)", tt.in)
		assert.Equal(t, tt.want, got, "CentsFromMilliunits(%d)", tt.in)
	}
}

func TestBuildMemo(t *testing.T) {
	assert.Equal(t, "", BuildMemo(nil))
	assert.Equal(t, "A", BuildMemo([]string{"A"}))
	assert.Equal(t, "A; B; C", BuildMemo([]string{"A", "B", "C"}))

	long := BuildMemo([]string{strings.Repeat("x", 150), strings.Repeat("y", 150)})
	assert.Len(t, long, MaxMemoLength)
	assert.True(t, strings.HasPrefix(long, strings.Repeat("x", 150)+"; "))
	assert.False(t, strings.HasSuffix(long, "..."))

	exact := strings.Repeat("z", MaxMemoLength)
	assert.Equal(t, exact, BuildMemo([]string{exact}))
}

func TestBuildMemo_CountsCharactersNotBytes(t *testing.T) {
	memo := BuildMemo([]string{strings.Repeat("–", 250)})

	assert.Equal(t, MaxMemoLength, len([]rune(memo)))
	assert.True(t, strings.HasPrefix(strings.Repeat("–", 250), memo))
}
