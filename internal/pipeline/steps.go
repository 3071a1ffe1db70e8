package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/amazon-ynab-sync/internal/amazon"
	"github.com/dvloznov/amazon-ynab-sync/internal/ledger"
	"github.com/dvloznov/amazon-ynab-sync/internal/logger"
	"github.com/dvloznov/amazon-ynab-sync/internal/pages"
	"github.com/dvloznov/amazon-ynab-sync/internal/reconcile"
)

// FetchTransactionsStep reads and parses the payments transactions page.
type FetchTransactionsStep struct {
	Source pages.Source
}

func (s *FetchTransactionsStep) Name() string { return "fetch-transactions" }

func (s *FetchTransactionsStep) Execute(ctx context.Context, state *PipelineState) error {
	page, err := s.Source.Fetch(ctx, amazon.TransactionsURL)
	if err != nil {
		return err
	}
	txs, err := amazon.ParseTransactions(ctx, page)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		return ErrNoTransactions
	}

	log := logger.FromContext(ctx)
	log.Info().Int("transactions", len(txs)).Msg("Parsed transactions page")
	state.Transactions = txs
	return nil
}

// FetchOrdersStep walks the order-history pages one at a time and
// accumulates every order card.
type FetchOrdersStep struct {
	Source pages.Source
}

func (s *FetchOrdersStep) Name() string { return "fetch-orders" }

func (s *FetchOrdersStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	offsets := amazon.OrderPageOffsets(state.Options.OrderCount)
	urls := make([]string, len(offsets))
	for i, off := range offsets {
		urls[i] = amazon.OrderHistoryPageURL(off)
	}

	i := 0
	for page, err := range pages.Sequential(ctx, s.Source, urls) {
		if err != nil {
			return err
		}
		orders, err := amazon.ParseOrders(ctx, page.Content)
		if err != nil {
			return fmt.Errorf("order-history page starting at %d: %w", offsets[i], err)
		}
		if len(orders) == 0 {
			return fmt.Errorf("%w on order-history page starting at %d", ErrNoOrders, offsets[i])
		}

		log.Info().
			Int("start_index", offsets[i]).
			Int("orders", len(orders)).
			Msg("Parsed order-history page")
		state.Orders = append(state.Orders, orders...)
		state.OrderPages++
		i++
	}
	return nil
}

// EnrichStep joins charges to order contents.
type EnrichStep struct{}

func (s *EnrichStep) Name() string { return "enrich" }

func (s *EnrichStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Enriched = reconcile.Enrich(ctx, state.Transactions, state.Orders)

	log := logger.FromContext(ctx)
	log.Info().
		Int("transactions", len(state.Transactions)).
		Int("enriched", len(state.Enriched)).
		Msg("Matched transactions to orders")
	return nil
}

// SelectBudgetStep picks the most recently modified budget.
type SelectBudgetStep struct {
	Ledger ledger.Service
}

func (s *SelectBudgetStep) Name() string { return "select-budget" }

func (s *SelectBudgetStep) Execute(ctx context.Context, state *PipelineState) error {
	budgets, err := s.Ledger.ListBudgets(ctx)
	if err != nil {
		return err
	}
	budget, err := ledger.SelectBudget(budgets)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	ev := log.Info().
		Int("budgets", len(budgets)).
		Str("budget_id", budget.ID).
		Str("budget_name", budget.Name)
	if budget.LastModifiedOn != nil {
		ev = ev.Time("last_modified_on", *budget.LastModifiedOn)
	}
	ev.Msg("Selected most recently modified budget")

	state.Budget = budget
	return nil
}

// LoadLedgerEntriesStep lists uncategorized entries and keeps those whose
// payee looks like the retailer.
type LoadLedgerEntriesStep struct {
	Ledger ledger.Service
}

func (s *LoadLedgerEntriesStep) Name() string { return "load-ledger-entries" }

func (s *LoadLedgerEntriesStep) Execute(ctx context.Context, state *PipelineState) error {
	all, err := s.Ledger.ListUncategorizedEntries(ctx, state.Budget.ID)
	if err != nil {
		return err
	}
	filtered := reconcile.FilterByPayee(all, state.Options.PayeeFilter)

	log := logger.FromContext(ctx)
	log.Info().
		Int("uncategorized", len(all)).
		Int("matching_payee", len(filtered)).
		Str("payee_filter", state.Options.PayeeFilter).
		Msg("Loaded ledger entries")

	if len(filtered) == 0 {
		return fmt.Errorf("%w with payee containing %q in budget %q", ledger.ErrNoEntries, state.Options.PayeeFilter, state.Budget.Name)
	}
	state.LedgerEntries = filtered
	return nil
}

// MatchStep pairs ledger entries with charges by amount and builds memos.
type MatchStep struct{}

func (s *MatchStep) Name() string { return "match" }

func (s *MatchStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Matches = reconcile.MatchLedgerEntries(ctx, state.Enriched, state.LedgerEntries)

	log := logger.FromContext(ctx)
	log.Info().
		Int("ledger_entries", len(state.LedgerEntries)).
		Int("matched", len(state.Matches)).
		Msg("Matched ledger entries to charges")
	return nil
}

// ExportStep hands enriched charges to a secondary sink. Export failures are
// logged and do not stop the run.
type ExportStep struct {
	Exporter Exporter
}

func (s *ExportStep) Name() string { return "export" }

func (s *ExportStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.Exporter.ExportEnriched(ctx, state.Enriched, state.Options.DryRun); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Export of enriched transactions failed")
	}
	return nil
}

// ApplyUpdatesStep writes every memo to the ledger in one batch.
type ApplyUpdatesStep struct {
	Ledger ledger.Service
}

func (s *ApplyUpdatesStep) Name() string { return "apply-updates" }

func (s *ApplyUpdatesStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	updates := reconcile.Entries(state.Matches)

	if state.Options.DryRun {
		for _, m := range state.Matches {
			log.Info().
				Str("ledger_id", m.Entry.ID).
				Str("order_number", m.Transaction.OrderNumber).
				Int64("amount_cents", m.Transaction.PriceInCents).
				Str("memo", m.Entry.Memo).
				Msg("[DRY RUN] Would update memo")
		}
		return nil
	}
	if len(updates) == 0 {
		return nil
	}

	n, err := s.Ledger.UpdateEntries(ctx, state.Budget.ID, updates)
	if err != nil {
		return err
	}
	state.Updated = n
	log.Info().Int("updated", n).Msg("Updated ledger memos")
	return nil
}
