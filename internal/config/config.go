package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// SupportedCurrencies is the enumerated set of quote currencies the
// dashboard offers.
var SupportedCurrencies = []string{"usd", "eur", "gbp", "jpy"}

// DefaultWatchlist seeds a fresh session.
var DefaultWatchlist = []string{"BTC", "ETH", "SOL", "ADA", "XRP"}

// Config holds all application configuration. Values come from the YAML
// file first, then environment variables override (the primary API key
// is normally injected via CMC_API_KEY and never logged).
type Config struct {
	Providers struct {
		CoinMarketCap struct {
			BaseURL    string `yaml:"base_url"`
			APIKey     string `yaml:"api_key" envconfig:"CMC_API_KEY"`
			BatchLimit int    `yaml:"batch_limit"`
		} `yaml:"coinmarketcap"`
		CoinGecko struct {
			BaseURL    string `yaml:"base_url"`
			BatchLimit int    `yaml:"batch_limit"`
		} `yaml:"coingecko"`
	} `yaml:"providers"`

	Gateway struct {
		TimeoutSeconds    int `yaml:"timeout_seconds"`
		MaxAttempts       int `yaml:"max_attempts"`
		RetryDelaySeconds int `yaml:"retry_delay_seconds"`
	} `yaml:"gateway"`

	Cache struct {
		QuotesTTLSeconds  int `yaml:"quotes_ttl_seconds"`
		HistoryTTLSeconds int `yaml:"history_ttl_seconds"`
	} `yaml:"cache"`

	Momentum struct {
		W1h  float64 `yaml:"w_1h"`
		W24h float64 `yaml:"w_24h"`
		W7d  float64 `yaml:"w_7d"`
	} `yaml:"momentum"`

	Watchlist []string `yaml:"watchlist"`
	Currency  string   `yaml:"currency"`

	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Logging struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding"`
	} `yaml:"logging"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
func Load(path string) (*Config, error) {
	// .env is optional; errors are deliberately ignored.
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Providers.CoinMarketCap.BatchLimit == 0 {
		c.Providers.CoinMarketCap.BatchLimit = 10
	}
	if c.Providers.CoinGecko.BatchLimit == 0 {
		c.Providers.CoinGecko.BatchLimit = 5
	}
	if c.Gateway.TimeoutSeconds == 0 {
		c.Gateway.TimeoutSeconds = 10
	}
	if c.Gateway.MaxAttempts == 0 {
		c.Gateway.MaxAttempts = 3
	}
	if c.Gateway.RetryDelaySeconds == 0 {
		c.Gateway.RetryDelaySeconds = 2
	}
	if c.Cache.QuotesTTLSeconds == 0 {
		c.Cache.QuotesTTLSeconds = 60
	}
	if c.Cache.HistoryTTLSeconds == 0 {
		c.Cache.HistoryTTLSeconds = 300
	}
	if c.Momentum.W1h == 0 && c.Momentum.W24h == 0 && c.Momentum.W7d == 0 {
		c.Momentum.W1h, c.Momentum.W24h, c.Momentum.W7d = 0.1, 0.3, 0.6
	}
	if len(c.Watchlist) == 0 {
		c.Watchlist = append([]string(nil), DefaultWatchlist...)
	}
	if c.Currency == "" {
		c.Currency = "usd"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "@every 1m"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Encoding == "" {
		c.Logging.Encoding = "json"
	}
}

// Validate checks that the configuration is coherent.
func (c *Config) Validate() error {
	if !IsSupportedCurrency(c.Currency) {
		return fmt.Errorf("currency %q not supported (one of %s)",
			c.Currency, strings.Join(SupportedCurrencies, ", "))
	}
	if c.Gateway.MaxAttempts < 1 {
		return fmt.Errorf("gateway.max_attempts must be at least 1")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Momentum.W1h < 0 || c.Momentum.W24h < 0 || c.Momentum.W7d < 0 {
		return fmt.Errorf("momentum weights must be non-negative")
	}
	return nil
}

// IsSupportedCurrency reports whether cur is in the supported set,
// case-insensitively.
func IsSupportedCurrency(cur string) bool {
	cur = strings.ToLower(cur)
	for _, c := range SupportedCurrencies {
		if c == cur {
			return true
		}
	}
	return false
}

// GatewayTimeout returns the request timeout as a duration.
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

// RetryDelay returns the fixed non-429 retry delay as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Gateway.RetryDelaySeconds) * time.Second
}

// QuotesTTL returns the quote cache TTL as a duration.
func (c *Config) QuotesTTL() time.Duration {
	return time.Duration(c.Cache.QuotesTTLSeconds) * time.Second
}

// HistoryTTL returns the history cache TTL as a duration.
func (c *Config) HistoryTTL() time.Duration {
	return time.Duration(c.Cache.HistoryTTLSeconds) * time.Second
}
