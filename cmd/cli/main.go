package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/amazon-ynab-sync/internal/amazon"
	"github.com/dvloznov/amazon-ynab-sync/internal/app"
	"github.com/dvloznov/amazon-ynab-sync/internal/config"
	"github.com/dvloznov/amazon-ynab-sync/internal/logger"
	"github.com/dvloznov/amazon-ynab-sync/internal/notionsync"
	"github.com/dvloznov/amazon-ynab-sync/internal/pages"
	"github.com/dvloznov/amazon-ynab-sync/internal/pipeline"
	"github.com/dvloznov/amazon-ynab-sync/internal/reconcile"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "sync":
		runSync(log)
	case "parse-transactions":
		runParseTransactions(log)
	case "parse-orders":
		runParseOrders(log)
	case "upload-snapshot":
		runUploadSnapshot(log)
	case "export-notion":
		runExportNotion(log)
	case "runs":
		runRuns(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Amazon YNAB Sync CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  sync                Match Amazon charges to YNAB transactions and update memos")
	fmt.Println("  parse-transactions  Print the charges found in a saved transactions page")
	fmt.Println("  parse-orders        Print the orders found in a saved order-history page")
	fmt.Println("  upload-snapshot     Upload a saved page to the snapshot bucket")
	fmt.Println("  export-notion       Export charges from saved pages to a Notion database")
	fmt.Println("  runs                List recent sync runs recorded in BigQuery")
	fmt.Println("  help                Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// loadConfig reads the config file and rebuilds the logger from it.
func loadConfig(log zerolog.Logger, path string) (*config.Config, zerolog.Logger) {
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	return cfg, logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
}

func runSync(log zerolog.Logger) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config file")
	orderCount := fs.Int("orders", 0, "Number of recent orders to read (defaults to config)")
	payee := fs.String("payee", "", "Only consider YNAB transactions whose payee contains this (defaults to config)")
	dryRun := fs.Bool("dry-run", false, "Compute updates without writing them to YNAB")
	snapshotDir := fs.String("snapshot-dir", "", "Read pages from this directory instead of fetching them")
	fs.Parse(os.Args[2:])

	cfg, log := loadConfig(log, *configPath)
	if *orderCount > 0 {
		cfg.Sync.OrderCount = *orderCount
	}
	if *payee != "" {
		cfg.Sync.PayeeFilter = *payee
	}
	if *dryRun {
		cfg.Sync.DryRun = true
	}
	if *snapshotDir != "" {
		cfg.Snapshots.Dir = *snapshotDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise")
	}
	defer a.Close()

	result := pipeline.Run(ctx, a.Deps, cfg.SyncOptions())
	if result.IsError() {
		fmt.Fprintln(os.Stderr, result.Message)
		a.Close()
		os.Exit(1)
	}

	summary := result.Value
	fmt.Println(summary.Message)
	for _, e := range summary.Updates {
		fmt.Printf("  %s  %s\n", e.ID, e.Memo)
	}
}

func runParseTransactions(log zerolog.Logger) {
	fs := flag.NewFlagSet("parse-transactions", flag.ExitOnError)
	file := fs.String("file", "", "Path to a saved transactions page")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Usage: cli parse-transactions -file PATH")
	}

	ctx := logger.WithContext(context.Background(), log)
	txs, err := amazon.ParseTransactions(ctx, readPage(log, *file))
	if err != nil {
		log.Fatal().Err(err).Msg("Parse failed")
	}
	printJSON(log, txs)
}

func runParseOrders(log zerolog.Logger) {
	fs := flag.NewFlagSet("parse-orders", flag.ExitOnError)
	file := fs.String("file", "", "Path to a saved order-history page")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Usage: cli parse-orders -file PATH")
	}

	ctx := logger.WithContext(context.Background(), log)
	orders, err := amazon.ParseOrders(ctx, readPage(log, *file))
	if err != nil {
		log.Fatal().Err(err).Msg("Parse failed")
	}
	printJSON(log, orders)
}

func runUploadSnapshot(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload-snapshot", flag.ExitOnError)
	prefix := fs.String("prefix", os.Getenv("SNAPSHOT_GCS_PREFIX"), "gs://bucket/prefix to upload under (or set SNAPSHOT_GCS_PREFIX env)")
	file := fs.String("file", "", "Path to the saved page")
	pageURL := fs.String("url", "", "Amazon URL the page was saved from")
	fs.Parse(os.Args[2:])

	if *prefix == "" || *file == "" || *pageURL == "" {
		log.Fatal().Msg("Usage: cli upload-snapshot -prefix gs://BUCKET/PREFIX -file PATH -url URL")
	}

	ctx := logger.WithContext(context.Background(), log)

	log.Info().
		Str("prefix", *prefix).
		Str("file", *file).
		Str("url", *pageURL).
		Msg("Uploading snapshot to GCS")

	uri, err := pages.UploadSnapshot(ctx, *prefix, *pageURL, *file)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", *file, uri)
}

func runExportNotion(log zerolog.Logger) {
	fs := flag.NewFlagSet("export-notion", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config file")
	txFile := fs.String("transactions", "", "Path to a saved transactions page")
	ordersFile := fs.String("orders", "", "Path to a saved order-history page")
	dryRun := fs.Bool("dry-run", false, "Log what would be exported without writing")
	fs.Parse(os.Args[2:])

	if *txFile == "" || *ordersFile == "" {
		log.Fatal().Msg("Usage: cli export-notion -transactions PATH -orders PATH")
	}

	cfg, log := loadConfig(log, *configPath)
	if !cfg.NotionEnabled() {
		log.Fatal().Msg("NOTION_TOKEN and NOTION_DB_ID are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	txs, err := amazon.ParseTransactions(ctx, readPage(log, *txFile))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse transactions page")
	}
	orders, err := amazon.ParseOrders(ctx, readPage(log, *ordersFile))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse orders page")
	}

	enriched := reconcile.Enrich(ctx, txs, orders)
	exporter := notionsync.NewExporter(notionsync.NewNotionClient(cfg.Notion.Token), cfg.Notion.DatabaseID)
	if err := exporter.ExportEnriched(ctx, enriched, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Printf("Exported %d charge(s).\n", len(enriched))
}

func runRuns(log zerolog.Logger) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config file")
	limit := fs.Int("limit", 20, "Number of runs to list")
	fs.Parse(os.Args[2:])

	cfg, log := loadConfig(log, *configPath)
	if !cfg.AuditEnabled() {
		log.Fatal().Msg("BQ_PROJECT and BQ_DATASET are required")
	}

	ctx := logger.WithContext(context.Background(), log)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise")
	}
	defer a.Close()

	runs, err := a.Runs.ListRecentRuns(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list runs")
	}

	fmt.Printf("\n=== Sync Runs (%d) ===\n", len(runs))
	for i, run := range runs {
		fmt.Printf("\n%d. %s\n", i+1, run.RunID)
		fmt.Printf("   Started:  %s\n", run.StartedTS.Format(time.RFC3339))
		fmt.Printf("   Status:   %s\n", run.Status)
		if run.DryRun {
			fmt.Println("   Dry run:  yes")
		}
		if run.BudgetName.Valid {
			fmt.Printf("   Budget:   %s\n", run.BudgetName.StringVal)
		}
		if run.Matched.Valid {
			fmt.Printf("   Matched:  %d\n", run.Matched.Int64)
		}
		if run.Updated.Valid {
			fmt.Printf("   Updated:  %d\n", run.Updated.Int64)
		}
		if run.ErrorMessage != "" {
			fmt.Printf("   Error:    %s\n", run.ErrorMessage)
		}
	}
	fmt.Println()
}

func readPage(log zerolog.Logger, path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to read page")
	}
	return string(b)
}

func printJSON(log zerolog.Logger, v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode output")
	}
}
