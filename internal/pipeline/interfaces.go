package pipeline

import (
	"context"

	"github.com/dvloznov/amazon-ynab-sync/internal/ledger"
	"github.com/dvloznov/amazon-ynab-sync/internal/pages"
	"github.com/dvloznov/amazon-ynab-sync/internal/reconcile"
	"github.com/google/uuid"
)

// RunRecorder keeps an audit trail of sync runs.
type RunRecorder interface {
	// StartRun records a new run as RUNNING and returns its ID.
	StartRun(ctx context.Context, opts Options) (string, error)
	// MarkRunFailed records the failure. It logs rather than returns its own errors.
	MarkRunFailed(ctx context.Context, runID string, runErr error)
	MarkRunSucceeded(ctx context.Context, runID string, summary Summary) error
	// RecordMatches stores one row per memo written (or, on a dry run, computed).
	RecordMatches(ctx context.Context, runID string, matches []reconcile.Match) error
}

// Exporter receives the enriched charges of a run.
type Exporter interface {
	ExportEnriched(ctx context.Context, txs []reconcile.EnrichedTransaction, dryRun bool) error
}

// Deps are the collaborators of a sync run.
type Deps struct {
	Pages  pages.Source
	Ledger ledger.Service
	// Recorder is optional; runs are not audited without one.
	Recorder RunRecorder
	// Exporter is optional.
	Exporter Exporter
}

// NopRecorder hands out run IDs and records nothing.
type NopRecorder struct{}

func (NopRecorder) StartRun(context.Context, Options) (string, error) {
	return uuid.NewString(), nil
}

func (NopRecorder) MarkRunFailed(context.Context, string, error) {}

func (NopRecorder) MarkRunSucceeded(context.Context, string, Summary) error { return nil }

func (NopRecorder) RecordMatches(context.Context, string, []reconcile.Match) error { return nil }
