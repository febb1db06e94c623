package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "USDT", cfg.Journal.QuoteCurrency)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "journal.db", cfg.Database.DSN)
	assert.Equal(t, 10*time.Second, cfg.PriceFeed.Timeout)
	assert.Equal(t, 5, cfg.PriceFeed.RateLimitBurst)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yml := `
journal:
  start_date: "2024-01-01"
  initial_balance: 2500
server:
  port: 9000
pricefeed:
  timeout: 3s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600))
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01", cfg.Journal.StartDate)
	assert.Equal(t, 2500.0, cfg.Journal.InitialBalance)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.PriceFeed.Timeout)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("journal: [unclosed"), 0o600))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
