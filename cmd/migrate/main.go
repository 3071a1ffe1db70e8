package main

import (
	"context"
	"crypto/sha256"
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/amazon-ynab-sync/internal/logger"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Pattern to match migration files: 0001_name.sql
var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// Migration represents a single migration file
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration represents a migration that has already been applied
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

func main() {
	var (
		projectID     = flag.String("project", os.Getenv("BQ_PROJECT"), "GCP project ID (or set BQ_PROJECT env)")
		datasetID     = flag.String("dataset", envOr("BQ_DATASET", "amazon_sync"), "BigQuery dataset ID (or set BQ_DATASET env)")
		appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
		migrationsDir = flag.String("migrations", "", "Read migrations from this directory instead of the embedded set")
		dryRun        = flag.Bool("dry-run", false, "List pending migrations without applying them")
	)
	flag.Parse()

	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	if *projectID == "" {
		log.Fatal().Msg("Error: -project flag is required. Please specify your GCP project ID.")
	}

	var fsys fs.FS
	if *migrationsDir != "" {
		fsys = os.DirFS(*migrationsDir)
	} else {
		sub, err := fs.Sub(embeddedMigrations, "migrations")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open embedded migrations")
		}
		fsys = sub
	}

	migrations, err := readMigrations(log, fsys, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(migrations)).Msg("Found migration files")

	client, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().Str("project_id", *projectID).Str("dataset_id", *datasetID).Msg("Connected to BigQuery")

	if err := ensureSchemaMigrationsTable(ctx, client, *projectID, *datasetID); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure schema_migrations table")
	}

	appliedMigrations, err := getAppliedMigrations(ctx, client, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get applied migrations")
	}
	log.Info().Int("count", len(appliedMigrations)).Msg("Found already applied migrations")

	pending, drifted := pendingMigrations(migrations, appliedMigrations)
	for _, m := range drifted {
		log.Warn().
			Int("version", m.Version).
			Str("name", m.Name).
			Msg("Applied migration has changed since it was applied")
	}

	if *dryRun {
		for _, m := range pending {
			log.Info().Str("migration", m.Filename).Msg("[DRY RUN] Would apply migration")
		}
		return
	}

	for _, m := range pending {
		log.Info().Str("migration", m.Filename).Msg("Applying migration")

		if err := runStatement(ctx, client.Query(m.SQL)); err != nil {
			log.Fatal().Err(err).Str("migration", m.Filename).Msg("Failed to execute migration")
		}
		if err := recordMigration(ctx, client, *projectID, *datasetID, *appliedBy, m); err != nil {
			log.Fatal().Err(err).Str("migration", m.Filename).Msg("Failed to record migration")
		}
	}

	if len(pending) == 0 {
		log.Info().Msg("No new migrations to apply. Database is up to date.")
	} else {
		log.Info().Int("applied", len(pending)).Msg("Successfully applied migrations")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// readMigrations reads every NNNN_name.sql file in fsys, fills in the
// project and dataset placeholders and returns them sorted by version.
func readMigrations(log zerolog.Logger, fsys fs.FS, projectID, datasetID string) ([]Migration, error) {
	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		matches := migrationPattern.FindStringSubmatch(file.Name())
		if matches == nil {
			log.Warn().Str("file", file.Name()).Msg("Skipping file with invalid format")
			continue
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil {
			log.Warn().Str("file", file.Name()).Msg("Skipping file with invalid version")
			continue
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %04d: %s and %s", version, prev, file.Name())
		}
		seen[version] = file.Name()

		content, err := fs.ReadFile(fsys, file.Name())
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", file.Name(), err)
		}

		sql := strings.ReplaceAll(string(content), "{{PROJECT_ID}}", projectID)
		sql = strings.ReplaceAll(sql, "{{DATASET_ID}}", datasetID)

		// The checksum covers the file before placeholders are filled in, so
		// the same migration matches across projects and datasets.
		checksum := fmt.Sprintf("%x", sha256.Sum256(content))

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     matches[2],
			Filename: file.Name(),
			SQL:      sql,
			Checksum: checksum,
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// pendingMigrations returns the migrations not yet applied, and the applied
// ones whose file no longer matches the recorded checksum.
func pendingMigrations(all []Migration, applied []AppliedMigration) (pending, drifted []Migration) {
	appliedByVersion := make(map[int]AppliedMigration, len(applied))
	for _, am := range applied {
		appliedByVersion[am.Version] = am
	}

	for _, m := range all {
		am, ok := appliedByVersion[m.Version]
		if !ok {
			pending = append(pending, m)
			continue
		}
		if am.Checksum != "" && am.Checksum != m.Checksum {
			drifted = append(drifted, m)
		}
	}
	return pending, drifted
}

// ensureSchemaMigrationsTable creates the schema_migrations table if it doesn't exist
func ensureSchemaMigrationsTable(ctx context.Context, client *bigquery.Client, projectID, datasetID string) error {
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS `+"`%s.%s.schema_migrations`"+` (
			version       INT64 NOT NULL,
			name          STRING NOT NULL,
			applied_at    TIMESTAMP NOT NULL,
			checksum      STRING,
			applied_by    STRING
		)
	`, projectID, datasetID)

	return runStatement(ctx, client.Query(sql))
}

// getAppliedMigrations retrieves the list of already applied migrations
func getAppliedMigrations(ctx context.Context, client *bigquery.Client, projectID, datasetID string) ([]AppliedMigration, error) {
	sql := fmt.Sprintf(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM `+"`%s.%s.schema_migrations`"+`
		ORDER BY version ASC
	`, projectID, datasetID)

	it, err := client.Query(sql).Read(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "Not found") {
			return []AppliedMigration{}, nil
		}
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64               `bigquery:"version"`
			Name      string              `bigquery:"name"`
			AppliedAt time.Time           `bigquery:"applied_at"`
			Checksum  bigquery.NullString `bigquery:"checksum"`
			AppliedBy bigquery.NullString `bigquery:"applied_by"`
		}

		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}

		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}

	return applied, nil
}

// recordMigration records a successfully applied migration in schema_migrations
func recordMigration(ctx context.Context, client *bigquery.Client, projectID, datasetID, appliedBy string, migration Migration) error {
	sql := fmt.Sprintf(`
		INSERT INTO `+"`%s.%s.schema_migrations`"+`
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`, projectID, datasetID)

	query := client.Query(sql)
	query.Parameters = []bigquery.QueryParameter{
		{Name: "version", Value: migration.Version},
		{Name: "name", Value: migration.Name},
		{Name: "checksum", Value: migration.Checksum},
		{Name: "applied_by", Value: appliedBy},
	}

	return runStatement(ctx, query)
}

func runStatement(ctx context.Context, query *bigquery.Query) error {
	job, err := query.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}
