package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/amazon-ynab-sync/internal/amazon"
	"github.com/dvloznov/amazon-ynab-sync/internal/ledger"
	"github.com/dvloznov/amazon-ynab-sync/internal/reconcile"
)

var (
	// ErrNoTransactions means the transactions page held no charge lines,
	// usually because the wrong page was supplied.
	ErrNoTransactions = errors.New("no transactions found on the transactions page")
	// ErrNoOrders means an order-history page held no order cards.
	ErrNoOrders = errors.New("no orders found")
)

// PipelineStep represents a single stage of a sync run.
type PipelineStep interface {
	// Name identifies the stage in failure messages and logs.
	Name() string
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	RunID   string
	Options Options

	Transactions  []amazon.Transaction
	Orders        []amazon.Order
	OrderPages    int
	Enriched      []reconcile.EnrichedTransaction
	Budget        ledger.Budget
	LedgerEntries []ledger.Entry
	Matches       []reconcile.Match
	Updated       int
}

// StageError names the stage a run failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline runs steps in order and stops at the first failure.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Steps returns the stage names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: step.Name(), Err: err}
		}
		if err := step.Execute(ctx, state); err != nil {
			return &StageError{Stage: step.Name(), Err: err}
		}
	}
	return nil
}

// NewSyncPipeline builds the standard sync run. The ledger is written only by
// the last step, after every other stage has succeeded.
func NewSyncPipeline(deps Deps) *Pipeline {
	steps := []PipelineStep{
		&FetchTransactionsStep{Source: deps.Pages},
		&FetchOrdersStep{Source: deps.Pages},
		&EnrichStep{},
		&SelectBudgetStep{Ledger: deps.Ledger},
		&LoadLedgerEntriesStep{Ledger: deps.Ledger},
		&MatchStep{},
	}
	if deps.Exporter != nil {
		steps = append(steps, &ExportStep{Exporter: deps.Exporter})
	}
	steps = append(steps, &ApplyUpdatesStep{Ledger: deps.Ledger})
	return NewPipeline(steps...)
}
