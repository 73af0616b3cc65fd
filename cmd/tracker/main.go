package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vitos/crypto_tracker/internal/config"
	"github.com/vitos/crypto_tracker/internal/domain"
	"github.com/vitos/crypto_tracker/internal/infrastructure/httpgate"
	"github.com/vitos/crypto_tracker/internal/infrastructure/logger"
	"github.com/vitos/crypto_tracker/internal/infrastructure/provider"
	"github.com/vitos/crypto_tracker/internal/metrics"
	"github.com/vitos/crypto_tracker/internal/scheduler"
	"github.com/vitos/crypto_tracker/internal/usecase"
	"github.com/vitos/crypto_tracker/internal/web"
)

func main() {
	// 1. Load Config
	cfgPath := "config/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Providers.CoinMarketCap.APIKey == "" {
		log.Warn("no CoinMarketCap API key configured, every fetch will use the fallback provider")
	}

	// 3. Init Metrics
	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// 4. Init Providers
	cmcGateway := httpgate.New("coinmarketcap", cfg.GatewayTimeout(), cfg.Gateway.MaxAttempts, cfg.RetryDelay(), log, m)
	geckoGateway := httpgate.New("coingecko", cfg.GatewayTimeout(), cfg.Gateway.MaxAttempts, cfg.RetryDelay(), log, m)

	primary := provider.NewCoinMarketCap(
		cfg.Providers.CoinMarketCap.BaseURL,
		cfg.Providers.CoinMarketCap.APIKey,
		cfg.Providers.CoinMarketCap.BatchLimit,
		cmcGateway, log)
	secondary := provider.NewCoinGecko(
		cfg.Providers.CoinGecko.BaseURL,
		cfg.Providers.CoinGecko.BatchLimit,
		geckoGateway, log, m)

	// 5. Init Service
	weights := usecase.MomentumWeights{W1h: cfg.Momentum.W1h, W24h: cfg.Momentum.W24h, W7d: cfg.Momentum.W7d}
	service := usecase.NewMarketService(primary, secondary, cfg.QuotesTTL(), cfg.HistoryTTL(), weights, log, m)

	// 6. Watchlist
	watchlist := domain.NewWatchlist(cfg.Watchlist)
	log.Info("watchlist loaded", zap.Strings("symbols", watchlist.Symbols()))

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 7. Web Server + push hub
	hub := web.NewHub(log)
	server := web.NewServer(cfg.Server.Port, service, watchlist, hub, cfg.Currency, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("web server failed", zap.Error(err))
		}
	}()

	// 8. Scheduler
	sched := scheduler.NewScheduler(service, watchlist, hub, cfg.Currency, log, m)
	if err := sched.Register(ctx, cfg.Schedule.RefreshCron); err != nil {
		log.Fatal("register refresh task", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, refreshing now")
		go sched.RunNow(ctx)
	}

	// 9. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("web server shutdown", zap.Error(err))
	}
	log.Info("tracker stopped")
}
