package reconcile

import "github.com/dvloznov/amazon-ynab-sync/internal/amazon"

// Both joins resolve duplicate keys the same way: the record seen last wins
// and earlier ones are silently dropped. Two orders sharing a number, or two
// charges sharing an amount, therefore collapse to one.

func indexOrdersLastWriteWins(orders []amazon.Order) map[string][]string {
	idx := make(map[string][]string, len(orders))
	for _, o := range orders {
		idx[o.OrderNumber] = o.ItemNames
	}
	return idx
}

func indexByAmountLastWriteWins(txs []EnrichedTransaction) map[int64]EnrichedTransaction {
	idx := make(map[int64]EnrichedTransaction, len(txs))
	for _, tx := range txs {
		idx[tx.PriceInCents] = tx
	}
	return idx
}
