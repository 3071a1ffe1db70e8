// Package notionsync mirrors enriched Amazon charges into a Notion database,
// one page per order number.
package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/amazon-ynab-sync/internal/logger"
	"github.com/dvloznov/amazon-ynab-sync/internal/reconcile"
	"github.com/jomei/notionapi"
)

// Exporter writes enriched charges to a Notion database. Orders already
// present in the database are left alone.
type Exporter struct {
	client     NotionService
	databaseID string
}

// NewExporter creates an Exporter for the given database.
func NewExporter(client NotionService, databaseID string) *Exporter {
	return &Exporter{client: client, databaseID: databaseID}
}

// ExportEnriched creates a page for every order number not yet in the
// database. A failed page is logged and skipped; the returned error reports
// how many failed.
func (e *Exporter) ExportEnriched(ctx context.Context, txs []reconcile.EnrichedTransaction, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Int("transactions", len(txs)).
		Bool("dry_run", dryRun).
		Msg("Starting export to Notion")

	pages, err := queryAllNotionPages(ctx, e.client, e.databaseID)
	if err != nil {
		return fmt.Errorf("ExportEnriched: failed to query Notion pages: %w", err)
	}

	existing := make(map[string]bool, len(pages))
	for _, page := range pages {
		if n := extractOrderNumber(page); n != "" {
			existing[n] = true
		}
	}

	var created, skipped, failed int
	for _, tx := range txs {
		if existing[tx.OrderNumber] {
			skipped++
			continue
		}
		// Several charges can share an order; the first one wins.
		existing[tx.OrderNumber] = true

		if dryRun {
			log.Info().
				Str("order_number", tx.OrderNumber).
				Int64("amount_cents", tx.PriceInCents).
				Msg("[DRY RUN] Would create Notion page")
			created++
			continue
		}

		page, err := e.client.CreatePage(ctx, e.databaseID, EnrichedToNotionProperties(tx))
		if err != nil {
			log.Warn().
				Err(err).
				Str("order_number", tx.OrderNumber).
				Msg("Failed to create Notion page")
			failed++
			continue
		}
		log.Debug().
			Str("order_number", tx.OrderNumber).
			Str("page_id", string(page.ID)).
			Msg("Created Notion page")
		created++
	}

	log.Info().
		Int("created", created).
		Int("skipped", skipped).
		Int("failed", failed).
		Msg("Export to Notion completed")

	if failed > 0 {
		return fmt.Errorf("ExportEnriched: %d of %d pages failed", failed, created+failed)
	}
	return nil
}

// queryAllNotionPages queries all pages from a Notion database, handling pagination.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
