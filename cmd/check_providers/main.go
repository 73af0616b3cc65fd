package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vitos/crypto_tracker/internal/config"
	"github.com/vitos/crypto_tracker/internal/domain"
	"github.com/vitos/crypto_tracker/internal/infrastructure/httpgate"
	"github.com/vitos/crypto_tracker/internal/infrastructure/provider"
	"github.com/vitos/crypto_tracker/internal/metrics"
)

// check_providers hits both providers for a few symbols so a deployment
// can be smoke-tested without starting the full tracker.
func main() {
	cfgPath := "config/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	symbols := []string{"BTC", "ETH", "SOL"}
	if len(os.Args) > 1 {
		symbols = os.Args[1:]
	}

	log := zap.NewNop()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	ctx := context.Background()

	fmt.Printf("Checking providers for %v (%s)...\n\n", symbols, cfg.Currency)

	cmc := provider.NewCoinMarketCap(
		cfg.Providers.CoinMarketCap.BaseURL,
		cfg.Providers.CoinMarketCap.APIKey,
		cfg.Providers.CoinMarketCap.BatchLimit,
		httpgate.New("coinmarketcap", cfg.GatewayTimeout(), cfg.Gateway.MaxAttempts, cfg.RetryDelay(), log, m),
		log)
	quotes, dropped, err := cmc.GetQuotes(ctx, symbols, cfg.Currency)
	report(cmc.Name(), quotes, dropped, err)

	gecko := provider.NewCoinGecko(
		cfg.Providers.CoinGecko.BaseURL,
		cfg.Providers.CoinGecko.BatchLimit,
		httpgate.New("coingecko", cfg.GatewayTimeout(), cfg.Gateway.MaxAttempts, cfg.RetryDelay(), log, m),
		log, m)
	quotes, dropped, err = gecko.GetQuotes(ctx, symbols, cfg.Currency)
	report(gecko.Name(), quotes, dropped, err)

	series, err := gecko.GetPriceHistory(ctx, symbols[0], cfg.Currency, 7)
	if err != nil {
		fmt.Printf("❌ %s history: %v\n", symbols[0], err)
	} else {
		fmt.Printf("✅ %s history: %d points\n", symbols[0], len(series.Points))
	}
}

func report(name string, quotes []domain.Quote, dropped domain.Dropped, err error) {
	if err != nil {
		fmt.Printf("❌ %s: %v\n\n", name, err)
		return
	}
	fmt.Printf("✅ %s: %d quotes\n", name, len(quotes))
	for _, q := range quotes {
		fmt.Printf("   %-6s %12.2f %s  24h %+.2f%%\n", q.Symbol, q.Price, q.Currency, q.PctChange24h)
	}
	if len(dropped.Untranslatable) > 0 {
		fmt.Printf("   untranslatable: %v\n", dropped.Untranslatable)
	}
	if len(dropped.Unrecognized) > 0 {
		fmt.Printf("   unrecognized: %v\n", dropped.Unrecognized)
	}
	fmt.Println()
}
