package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, DefaultWatchlist, cfg.Watchlist)
	assert.Equal(t, 10, cfg.Providers.CoinMarketCap.BatchLimit)
	assert.Equal(t, 5, cfg.Providers.CoinGecko.BatchLimit)
	assert.Equal(t, 3, cfg.Gateway.MaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.QuotesTTL())
	assert.Equal(t, 5*time.Minute, cfg.HistoryTTL())
	assert.Equal(t, 2*time.Second, cfg.RetryDelay())
	assert.Equal(t, "@every 1m", cfg.Schedule.RefreshCron)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.6, cfg.Momentum.W7d)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
currency: eur
watchlist: [DOT, LINK]
cache:
  quotes_ttl_seconds: 30
momentum:
  w_1h: 0.2
  w_24h: 0.3
  w_7d: 0.5
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "eur", cfg.Currency)
	assert.Equal(t, []string{"DOT", "LINK"}, cfg.Watchlist)
	assert.Equal(t, 30*time.Second, cfg.QuotesTTL())
	assert.Equal(t, 0.2, cfg.Momentum.W1h)
	assert.Equal(t, 9090, cfg.Server.Port)
	// untouched sections still get defaults
	assert.Equal(t, 5*time.Minute, cfg.HistoryTTL())
}

func TestLoad_EnvOverridesAPIKey(t *testing.T) {
	t.Setenv("CMC_API_KEY", "env-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Providers.CoinMarketCap.APIKey)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("currency: [broken"), 0o644))

	_, err := Load(path)

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())

	cfg.Currency = "chf"
	assert.Error(t, cfg.Validate())
	cfg.Currency = "usd"

	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
	cfg.Server.Port = 8080

	cfg.Momentum.W24h = -1
	assert.Error(t, cfg.Validate())
}

func TestIsSupportedCurrency(t *testing.T) {
	assert.True(t, IsSupportedCurrency("usd"))
	assert.True(t, IsSupportedCurrency("EUR"))
	assert.False(t, IsSupportedCurrency("chf"))
	assert.False(t, IsSupportedCurrency(""))
}
