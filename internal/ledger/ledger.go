// Package ledger describes the budgeting ledger the sync writes memos into.
package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoBudgets is returned when the account has no budgets at all.
	ErrNoBudgets = errors.New("no budgets found")
	// ErrNoEntries is returned when a budget has no entries to reconcile.
	ErrNoEntries = errors.New("no uncategorized ledger entries found")
)

// Budget is one budget in the ledger account.
type Budget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// LastModifiedOn is nil when the ledger never reported a modification time.
	LastModifiedOn *time.Time `json:"last_modified_on,omitempty"`
}

// Entry is one ledger transaction.
type Entry struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	// AmountMilliunits is the signed amount in thousandths of a currency unit.
	AmountMilliunits int64  `json:"amount"`
	PayeeName        string `json:"payee_name"`
	Memo             string `json:"memo"`
}

// Service is the ledger API the sync run talks to.
type Service interface {
	ListBudgets(ctx context.Context) ([]Budget, error)
	ListUncategorizedEntries(ctx context.Context, budgetID string) ([]Entry, error)
	// UpdateEntries writes each entry's memo back in one batch and reports how many were saved.
	UpdateEntries(ctx context.Context, budgetID string, entries []Entry) (int, error)
}

// SelectBudget picks the most recently modified budget. Budgets without a
// modification time sort as older than any that have one; ties keep the
// order the ledger returned them in.
func SelectBudget(budgets []Budget) (Budget, error) {
	if len(budgets) == 0 {
		return Budget{}, ErrNoBudgets
	}

	best := budgets[0]
	for _, b := range budgets[1:] {
		if newer(b, best) {
			best = b
		}
	}
	return best, nil
}

func newer(a, b Budget) bool {
	switch {
	case a.LastModifiedOn == nil:
		return false
	case b.LastModifiedOn == nil:
		return true
	default:
		return a.LastModifiedOn.After(*b.LastModifiedOn)
	}
}
