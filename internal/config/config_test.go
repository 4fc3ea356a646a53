package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Scrape.TimeoutSecs)
	assert.Equal(t, 3, cfg.Scrape.MaxAttempts)
	assert.Equal(t, 10, cfg.Scrape.MaxPages)
	assert.Equal(t, 2, cfg.Scrape.MaxConsecutiveMisses)
	assert.Equal(t, 2.0, cfg.Scrape.RequestsPerSecond)
	assert.Equal(t, 0.01, cfg.Dedup.PriceTolerance)
	assert.Equal(t, 10.0, cfg.Dedup.AreaToleranceSqFt)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "propscout.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "data", cfg.Output.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
scrape:
  max_pages: 4
  timeout_secs: 30
store:
  driver: postgres
  database_url: postgres://localhost/propscout
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Scrape.MaxPages)
	assert.Equal(t, 30, cfg.Scrape.TimeoutSecs)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched keys keep their defaults.
	assert.Equal(t, 3, cfg.Scrape.MaxAttempts)
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PROPSCOUT_SCRAPE_MAX_PAGES", "7")
	t.Setenv("PROPSCOUT_STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Scrape.MaxPages)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "shouting", Format: "json"}))
}
