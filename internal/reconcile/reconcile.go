// Package reconcile joins Amazon charges to order contents, then joins the
// result to ledger entries by amount to produce memo updates.
package reconcile

import (
	"context"
	"strings"

	"github.com/dvloznov/amazon-ynab-sync/internal/amazon"
	"github.com/dvloznov/amazon-ynab-sync/internal/ledger"
	"github.com/dvloznov/amazon-ynab-sync/internal/logger"
)

const (
	// MaxMemoLength is the ledger's memo limit, in characters.
	MaxMemoLength = 200
	// MemoSeparator joins item names inside a memo.
	MemoSeparator = "; "
	// DefaultPayeeFilter selects the ledger entries worth matching.
	DefaultPayeeFilter = "Amazon"
)

// EnrichedTransaction is a charge with the item names of its order.
type EnrichedTransaction struct {
	amazon.Transaction
	ItemNames []string `json:"item_names"`
}

// Match pairs a ledger entry, memo already filled in, with the charge it was matched to.
type Match struct {
	Entry       ledger.Entry        `json:"entry"`
	Transaction EnrichedTransaction `json:"transaction"`
}

// Enrich attaches item names to each charge by order number. Charges whose
// order is not among orders are dropped with a warning. Output keeps the
// order of txs.
func Enrich(ctx context.Context, txs []amazon.Transaction, orders []amazon.Order) []EnrichedTransaction {
	log := logger.FromContext(ctx)
	itemsByOrder := indexOrdersLastWriteWins(orders)

	enriched := make([]EnrichedTransaction, 0, len(txs))
	for _, tx := range txs {
		names, ok := itemsByOrder[tx.OrderNumber]
		if !ok {
			log.Warn().
				Str("order_number", tx.OrderNumber).
				Msg("Could not find order information for transaction")
			continue
		}
		enriched = append(enriched, EnrichedTransaction{
			Transaction: tx,
			ItemNames:   append([]string(nil), names...),
		})
	}
	return enriched
}

// FilterByPayee keeps entries whose payee name contains substr (case-sensitive).
func FilterByPayee(entries []ledger.Entry, substr string) []ledger.Entry {
	var kept []ledger.Entry
	for _, e := range entries {
		if strings.Contains(e.PayeeName, substr) {
			kept = append(kept, e)
		}
	}
	return kept
}

// MatchLedgerEntries pairs each ledger entry with the charge of the same
// amount and sets its memo from the charge's item names. Entries without a
// charge of that exact amount are left out. Output keeps the order of entries.
func MatchLedgerEntries(ctx context.Context, enriched []EnrichedTransaction, entries []ledger.Entry) []Match {
	log := logger.FromContext(ctx)
	byAmount := indexByAmountLastWriteWins(enriched)

	var matches []Match
	for _, e := range entries {
		cents, ok := CentsFromMilliunits(e.AmountMilliunits)
		if !ok {
			log.Debug().
				Str("ledger_id", e.ID).
				Int64("amount_milliunits", e.AmountMilliunits).
				Msg("Ledger amount has sub-cent precision, no charge can match")
			continue
		}
		tx, ok := byAmount[cents]
		if !ok {
			log.Debug().
				Str("ledger_id", e.ID).
				Int64("amount_cents", cents).
				Msg("No charge with this amount")
			continue
		}

		updated := e
		updated.Memo = BuildMemo(tx.ItemNames)
		matches = append(matches, Match{Entry: updated, Transaction: tx})
	}
	return matches
}

// Entries returns the updated ledger entries of matches.
func Entries(matches []Match) []ledger.Entry {
	out := make([]ledger.Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Entry)
	}
	return out
}

// CentsFromMilliunits converts a ledger amount to cents. It reports false
// when the amount is not a whole number of cents.
func CentsFromMilliunits(milliunits int64) (int64, bool) {
	if milliunits%10 != 0 {
		return 0, false
	}
	return milliunits / 10, true
}

// BuildMemo joins item names with "; " and cuts the result to MaxMemoLength
// characters. No ellipsis is added.
func BuildMemo(itemNames []string) string {
	memo := strings.Join(itemNames, MemoSeparator)
	runes := []rune(memo)
	if len(runes) > MaxMemoLength {
		return string(runes[:MaxMemoLength])
	}
	return memo
}
