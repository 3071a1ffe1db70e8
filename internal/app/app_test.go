package app

import (
	"context"
	"testing"

	"github.com/dvloznov/amazon-ynab-sync/internal/config"
	"github.com/dvloznov/amazon-ynab-sync/internal/pages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPageSource(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshot dir wins", func(t *testing.T) {
		cfg := config.Default()
		cfg.Snapshots.Dir = "snaps"
		cfg.Amazon.Cookie = "c=1"

		src, err := NewPageSource(ctx, cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, pages.DirSource{Dir: "snaps"}, src)
	})

	t.Run("live fetch saving copies", func(t *testing.T) {
		cfg := config.Default()
		cfg.Amazon.Cookie = "c=1"
		cfg.Snapshots.SaveDir = "out"

		src, err := NewPageSource(ctx, cfg, nil)
		require.NoError(t, err)
		saving, ok := src.(pages.SavingSource)
		require.True(t, ok)
		assert.Equal(t, "out", saving.Dir)
		assert.IsType(t, &pages.HTTPSource{}, saving.Source)
	})

	t.Run("live fetch", func(t *testing.T) {
		cfg := config.Default()
		cfg.Amazon.Cookie = "c=1"

		src, err := NewPageSource(ctx, cfg, nil)
		require.NoError(t, err)
		assert.IsType(t, &pages.HTTPSource{}, src)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := NewPageSource(ctx, config.Default(), nil)
		assert.Error(t, err)
	})
}

func TestNew_WithoutOptionalSinks(t *testing.T) {
	cfg := config.Default()
	cfg.Ledger.AccessToken = "tok"
	cfg.Snapshots.Dir = t.TempDir()

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Deps.Pages)
	assert.NotNil(t, a.Deps.Ledger)
	assert.Nil(t, a.Deps.Recorder)
	assert.Nil(t, a.Deps.Exporter)
	assert.Nil(t, a.Runs)
}

func TestNew_WithNotion(t *testing.T) {
	cfg := config.Default()
	cfg.Ledger.AccessToken = "tok"
	cfg.Snapshots.Dir = t.TempDir()
	cfg.Notion.Token = "secret"
	cfg.Notion.DatabaseID = "db"

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Deps.Exporter)
}
