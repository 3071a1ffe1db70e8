package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/amazon-ynab-sync/internal/ledger"
	"github.com/dvloznov/amazon-ynab-sync/internal/logger"
	"github.com/dvloznov/amazon-ynab-sync/internal/reconcile"
	"github.com/dvloznov/amazon-ynab-sync/internal/status"
)

// DefaultOrderCount is how many recent orders are read when none is requested.
const DefaultOrderCount = 50

// Options tune a single run.
type Options struct {
	// OrderCount is how many recent orders to read; it is rounded up to whole pages.
	OrderCount int `json:"order_count"`
	// PayeeFilter selects the ledger entries to reconcile.
	PayeeFilter string `json:"payee_filter"`
	// DryRun computes memos without writing them.
	DryRun bool `json:"dry_run"`
}

func (o Options) withDefaults() Options {
	if o.OrderCount <= 0 {
		o.OrderCount = DefaultOrderCount
	}
	if o.PayeeFilter == "" {
		o.PayeeFilter = reconcile.DefaultPayeeFilter
	}
	return o
}

// Summary is the outcome of a successful run.
type Summary struct {
	RunID         string `json:"run_id"`
	BudgetID      string `json:"budget_id"`
	BudgetName    string `json:"budget_name"`
	Transactions  int    `json:"transactions"`
	Orders        int    `json:"orders"`
	OrderPages    int    `json:"order_pages"`
	Enriched      int    `json:"enriched"`
	LedgerEntries int    `json:"ledger_entries"`
	Matched       int    `json:"matched"`
	Updated       int    `json:"updated"`
	DryRun        bool   `json:"dry_run"`
	// Updates are the ledger entries with their new memos, possibly empty.
	Updates []ledger.Entry    `json:"updates"`
	Matches []reconcile.Match `json:"-"`
	Message string            `json:"message"`
}

func summarize(state *PipelineState) Summary {
	s := Summary{
		RunID:         state.RunID,
		BudgetID:      state.Budget.ID,
		BudgetName:    state.Budget.Name,
		Transactions:  len(state.Transactions),
		Orders:        len(state.Orders),
		OrderPages:    state.OrderPages,
		Enriched:      len(state.Enriched),
		LedgerEntries: len(state.LedgerEntries),
		Matched:       len(state.Matches),
		Updated:       state.Updated,
		DryRun:        state.Options.DryRun,
		Updates:       reconcile.Entries(state.Matches),
		Matches:       state.Matches,
	}
	if s.DryRun {
		s.Message = fmt.Sprintf("Dry run: would update %d transaction(s).", s.Matched)
	} else {
		s.Message = fmt.Sprintf("Successfully updated %d transaction(s)!", s.Updated)
	}
	return s
}

// Run performs one full sync and reports the outcome as a Result. On failure
// the message names the stage that failed and the ledger has not been written.
func Run(ctx context.Context, deps Deps, opts Options) status.Result[Summary] {
	opts = opts.withDefaults()
	recorder := deps.Recorder
	if recorder == nil {
		recorder = NopRecorder{}
	}

	runID, err := recorder.StartRun(ctx, opts)
	if err != nil {
		return status.Errorf[Summary]("start-run: %v", err)
	}

	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Int("order_count", opts.OrderCount).
		Str("payee_filter", opts.PayeeFilter).
		Bool("dry_run", opts.DryRun).
		Msg("Starting sync run")

	state := &PipelineState{RunID: runID, Options: opts}
	if err := NewSyncPipeline(deps).Execute(ctx, state); err != nil {
		log.Error().Err(err).Msg("Sync run failed")
		recorder.MarkRunFailed(ctx, runID, err)
		return status.Error[Summary](err.Error())
	}

	summary := summarize(state)

	if err := recorder.RecordMatches(ctx, runID, state.Matches); err != nil {
		log.Warn().Err(err).Msg("Failed to record memo updates")
	}
	if err := recorder.MarkRunSucceeded(ctx, runID, summary); err != nil {
		log.Warn().Err(err).Msg("Failed to mark run succeeded")
	}

	log.Info().
		Int("matched", summary.Matched).
		Int("updated", summary.Updated).
		Msg(summary.Message)

	return status.Ready(summary)
}
