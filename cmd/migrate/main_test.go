package main

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilenamePattern(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  string
		name     string
	}{
		{"0001_create_sync_runs.sql", true, "0001", "create_sync_runs"},
		{"001_invalid.sql", false, "", ""},
		{"0001_test", false, "", ""},
		{"0001.sql", false, "", ""},
		{"invalid_0001_test.sql", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			m := migrationPattern.FindStringSubmatch(tt.filename)
			if !tt.valid {
				assert.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			assert.Equal(t, tt.version, m[1])
			assert.Equal(t, tt.name, m[2])
		})
	}
}

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_second.sql": {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.b` (id INT64);")},
		"0001_first.sql":  {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.a` (id INT64);")},
		"README.md":       {Data: []byte("notes")},
	}

	got, err := readMigrations(zerolog.Nop(), fsys, "proj", "ds")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, "CREATE TABLE `proj.ds.a` (id INT64);", got[0].SQL)
	assert.Equal(t, 2, got[1].Version)

	other, err := readMigrations(zerolog.Nop(), fsys, "other", "x")
	require.NoError(t, err)
	assert.Equal(t, got[0].Checksum, other[0].Checksum, "checksum ignores placeholder values")
	assert.NotEqual(t, got[0].Checksum, got[1].Checksum)
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_a.sql": {Data: []byte("SELECT 1")},
		"0001_b.sql": {Data: []byte("SELECT 2")},
	}

	_, err := readMigrations(zerolog.Nop(), fsys, "p", "d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration version 0001")
}

func TestEmbeddedMigrations(t *testing.T) {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	require.NoError(t, err)

	got, err := readMigrations(zerolog.Nop(), sub, "proj", "amazon_sync")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "create_sync_runs", got[0].Name)
	assert.Contains(t, got[0].SQL, "`proj.amazon_sync.sync_runs`")
	assert.Equal(t, "create_memo_updates", got[1].Name)
	for _, m := range got {
		assert.False(t, strings.Contains(m.SQL, "{{"), "unreplaced placeholder in %s", m.Filename)
	}
}

func TestPendingMigrations(t *testing.T) {
	all := []Migration{
		{Version: 1, Name: "a", Checksum: "c1"},
		{Version: 2, Name: "b", Checksum: "c2-new"},
		{Version: 3, Name: "c", Checksum: "c3"},
	}
	applied := []AppliedMigration{
		{Version: 1, Checksum: "c1"},
		{Version: 2, Checksum: "c2-old"},
	}

	pending, drifted := pendingMigrations(all, applied)

	require.Len(t, pending, 1)
	assert.Equal(t, 3, pending[0].Version)
	require.Len(t, drifted, 1)
	assert.Equal(t, 2, drifted[0].Version)
}
