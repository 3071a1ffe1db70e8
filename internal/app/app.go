// Package app wires configuration into the collaborators of a sync run.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/amazon-ynab-sync/internal/config"
	infraBQ "github.com/dvloznov/amazon-ynab-sync/internal/infra/bigquery"
	"github.com/dvloznov/amazon-ynab-sync/internal/ledger/ynab"
	"github.com/dvloznov/amazon-ynab-sync/internal/logger"
	"github.com/dvloznov/amazon-ynab-sync/internal/notionsync"
	"github.com/dvloznov/amazon-ynab-sync/internal/pages"
	"github.com/dvloznov/amazon-ynab-sync/internal/pipeline"
)

// App holds the wired dependencies and whatever needs closing afterwards.
type App struct {
	Deps pipeline.Deps
	// Runs is nil when no BigQuery dataset is configured.
	Runs *infraBQ.BigQueryRunRepository

	closers []func() error
}

// Close releases every client opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// New builds the page source, ledger client, run recorder and exporter from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.FromContext(ctx)
	a := &App{}

	src, err := NewPageSource(ctx, cfg, a)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Deps.Pages = src

	a.Deps.Ledger = ynab.New(ynab.Config{
		BaseURL:     cfg.Ledger.BaseURL,
		AccessToken: cfg.Ledger.AccessToken,
		Timeout:     cfg.Ledger.Timeout,
		RetryCount:  cfg.Ledger.RetryCount,
	})

	if cfg.AuditEnabled() {
		repo, err := infraBQ.NewBigQueryRunRepository(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, repo.Close)
		a.Runs = repo
		a.Deps.Recorder = repo
		log.Info().
			Str("project_id", cfg.BigQuery.ProjectID).
			Str("dataset_id", cfg.BigQuery.DatasetID).
			Msg("Recording sync runs in BigQuery")
	}

	if cfg.NotionEnabled() {
		a.Deps.Exporter = notionsync.NewExporter(notionsync.NewNotionClient(cfg.Notion.Token), cfg.Notion.DatabaseID)
		log.Info().Msg("Exporting enriched transactions to Notion")
	}

	return a, nil
}

// NewPageSource picks where pages come from: a snapshot directory, then a
// snapshot bucket, then a live fetch. Clients that need closing are
// registered on a when it is not nil.
func NewPageSource(ctx context.Context, cfg *config.Config, a *App) (pages.Source, error) {
	log := logger.FromContext(ctx)

	switch {
	case cfg.Snapshots.Dir != "":
		log.Info().Str("dir", cfg.Snapshots.Dir).Msg("Reading pages from snapshot directory")
		return pages.DirSource{Dir: cfg.Snapshots.Dir}, nil

	case cfg.Snapshots.GCSPrefix != "":
		src, err := pages.NewGCSSource(ctx, cfg.Snapshots.GCSPrefix)
		if err != nil {
			return nil, err
		}
		if a != nil {
			a.closers = append(a.closers, src.Close)
		}
		log.Info().Str("prefix", cfg.Snapshots.GCSPrefix).Msg("Reading pages from snapshot bucket")
		return src, nil

	case cfg.Amazon.Cookie != "":
		var src pages.Source = pages.NewHTTPSource(cfg.Amazon.Cookie, cfg.Amazon.Timeout)
		if cfg.Snapshots.SaveDir != "" {
			src = pages.SavingSource{Source: src, Dir: cfg.Snapshots.SaveDir}
		}
		log.Info().Msg("Fetching pages live")
		return src, nil
	}

	return nil, fmt.Errorf("NewPageSource: no page source configured")
}
