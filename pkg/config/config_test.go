package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "soicau.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().NATS, cfg.NATS)
	assert.Equal(t, 2, cfg.Analysis.PatternCount)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
duckdb:
  path: /tmp/x.duckdb
nats:
  url: nats://queue:4222
  ack_wait: 1m
analysis:
  pattern_count: 4
  exact_match: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.duckdb", cfg.DuckDB.Path)
	assert.Equal(t, "nats://queue:4222", cfg.NATS.URL)
	assert.Equal(t, time.Minute, cfg.NATS.AckWait)
	assert.Equal(t, "soicau", cfg.NATS.Stream)
	assert.Equal(t, 4, cfg.Analysis.PatternCount)
	assert.True(t, cfg.Analysis.ExactMatch)
	assert.Equal(t, "pair_profiles", cfg.Milvus.Collection)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "analysis: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "analysis:\n  pattern_count: -1\n"))
	assert.ErrorContains(t, err, "pattern_count")
}

func TestApplyFlags(t *testing.T) {
	cfg := Default()
	cfg.DuckDB.Path = "from-file.duckdb"
	cfg.Analysis.PatternCount = 5

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	db := fs.String("db", "flag-default.duckdb", "")
	count := fs.Int("count", 2, "")
	require.NoError(t, fs.Parse([]string{"-count", "3"}))

	ApplyFlags(fs, map[string]func(){
		"db":    func() { cfg.DuckDB.Path = *db },
		"count": func() { cfg.Analysis.PatternCount = *count },
	})

	assert.Equal(t, "from-file.duckdb", cfg.DuckDB.Path)
	assert.Equal(t, 3, cfg.Analysis.PatternCount)
}
