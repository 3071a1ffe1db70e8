// Package config loads settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dvloznov/amazon-ynab-sync/internal/ledger/ynab"
	"github.com/dvloznov/amazon-ynab-sync/internal/pipeline"
	"github.com/dvloznov/amazon-ynab-sync/internal/reconcile"
	"gopkg.in/yaml.v3"
)

type LedgerConfig struct {
	BaseURL     string        `yaml:"base_url"`
	AccessToken string        `yaml:"access_token"`
	Timeout     time.Duration `yaml:"timeout"`
	RetryCount  int           `yaml:"retry_count"`
}

type AmazonConfig struct {
	// Cookie is the session cookie header for live page fetches.
	Cookie  string        `yaml:"cookie"`
	Timeout time.Duration `yaml:"timeout"`
}

// SnapshotConfig says where saved pages are read from. When Dir or GCSPrefix
// is set, pages are replayed from there instead of fetched live.
type SnapshotConfig struct {
	Dir       string `yaml:"dir"`
	GCSPrefix string `yaml:"gcs_prefix"`
	// SaveDir keeps a copy of every live-fetched page.
	SaveDir string `yaml:"save_dir"`
}

type SyncConfig struct {
	OrderCount  int    `yaml:"order_count"`
	PayeeFilter string `yaml:"payee_filter"`
	DryRun      bool   `yaml:"dry_run"`
}

type BigQueryConfig struct {
	ProjectID string `yaml:"project_id"`
	DatasetID string `yaml:"dataset_id"`
}

type NotionConfig struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
}

type APIConfig struct {
	Port   string `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config is the full application configuration.
type Config struct {
	Ledger    LedgerConfig   `yaml:"ledger"`
	Amazon    AmazonConfig   `yaml:"amazon"`
	Snapshots SnapshotConfig `yaml:"snapshots"`
	Sync      SyncConfig     `yaml:"sync"`
	BigQuery  BigQueryConfig `yaml:"bigquery"`
	Notion    NotionConfig   `yaml:"notion"`
	API       APIConfig      `yaml:"api"`
	Log       LogConfig      `yaml:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Ledger: LedgerConfig{
			BaseURL:    ynab.DefaultBaseURL,
			Timeout:    30 * time.Second,
			RetryCount: 3,
		},
		Amazon: AmazonConfig{
			Timeout: 30 * time.Second,
		},
		Sync: SyncConfig{
			OrderCount:  pipeline.DefaultOrderCount,
			PayeeFilter: reconcile.DefaultPayeeFilter,
		},
		API: APIConfig{
			Port: "8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Parse reads YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config (check syntax, indentation, and field names): %w", err)
	}
	return cfg, nil
}

// Load reads the file at path, when given, then applies the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		cfg, err = Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set("YNAB_ACCESS_TOKEN", &c.Ledger.AccessToken)
	set("AMAZON_COOKIE", &c.Amazon.Cookie)
	set("SNAPSHOT_DIR", &c.Snapshots.Dir)
	set("SNAPSHOT_GCS_PREFIX", &c.Snapshots.GCSPrefix)
	set("BQ_PROJECT", &c.BigQuery.ProjectID)
	set("BQ_DATASET", &c.BigQuery.DatasetID)
	set("NOTION_TOKEN", &c.Notion.Token)
	set("NOTION_DB_ID", &c.Notion.DatabaseID)
	set("SYNC_API_KEY", &c.API.APIKey)
	set("PORT", &c.API.Port)
	set("LOG_LEVEL", &c.Log.Level)
}

// SyncOptions returns the run options configured for syncs.
func (c *Config) SyncOptions() pipeline.Options {
	return pipeline.Options{
		OrderCount:  c.Sync.OrderCount,
		PayeeFilter: c.Sync.PayeeFilter,
		DryRun:      c.Sync.DryRun,
	}
}

// Validate reports every setting a sync run needs but does not have.
func (c *Config) Validate() error {
	var errs []error

	if c.Ledger.AccessToken == "" {
		errs = append(errs, errors.New("ledger access token is required (YNAB_ACCESS_TOKEN)"))
	}
	if c.Amazon.Cookie == "" && c.Snapshots.Dir == "" && c.Snapshots.GCSPrefix == "" {
		errs = append(errs, errors.New("a page source is required: AMAZON_COOKIE, SNAPSHOT_DIR or SNAPSHOT_GCS_PREFIX"))
	}
	if c.Snapshots.GCSPrefix != "" && !strings.HasPrefix(c.Snapshots.GCSPrefix, "gs://") {
		errs = append(errs, fmt.Errorf("snapshot GCS prefix must start with gs://, got %q", c.Snapshots.GCSPrefix))
	}
	if c.Sync.OrderCount < 0 {
		errs = append(errs, fmt.Errorf("order count must not be negative, got %d", c.Sync.OrderCount))
	}
	if (c.BigQuery.ProjectID == "") != (c.BigQuery.DatasetID == "") {
		errs = append(errs, errors.New("bigquery project and dataset must be set together (BQ_PROJECT, BQ_DATASET)"))
	}
	if (c.Notion.Token == "") != (c.Notion.DatabaseID == "") {
		errs = append(errs, errors.New("notion token and database ID must be set together (NOTION_TOKEN, NOTION_DB_ID)"))
	}

	return errors.Join(errs...)
}

// AuditEnabled reports whether runs are recorded in BigQuery.
func (c *Config) AuditEnabled() bool {
	return c.BigQuery.ProjectID != "" && c.BigQuery.DatasetID != ""
}

// NotionEnabled reports whether enriched charges are exported to Notion.
func (c *Config) NotionEnabled() bool {
	return c.Notion.Token != "" && c.Notion.DatabaseID != ""
}
