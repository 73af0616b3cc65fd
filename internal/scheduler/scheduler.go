package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vitos/crypto_tracker/internal/domain"
	"github.com/vitos/crypto_tracker/internal/metrics"
	"github.com/vitos/crypto_tracker/internal/usecase"
)

// Broadcaster receives each refreshed market result, typically the web
// hub pushing to connected dashboards.
type Broadcaster interface {
	Broadcast(v any)
}

// Scheduler refreshes the watchlist on a cron spec and pushes the
// result to subscribers.
type Scheduler struct {
	cron      *cron.Cron
	service   *usecase.MarketService
	watchlist *domain.Watchlist
	out       Broadcaster
	currency  string
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewScheduler(
	service *usecase.MarketService,
	watchlist *domain.Watchlist,
	out Broadcaster,
	currency string,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		service:   service,
		watchlist: watchlist,
		out:       out,
		currency:  currency,
		logger:    logger,
		metrics:   m,
	}
}

// Register adds the refresh job under the given cron spec
// (e.g. "@every 1m"). The context is captured by the job closure and
// cancels in-flight fetches on shutdown.
func (s *Scheduler) Register(ctx context.Context, refreshCron string) error {
	if _, err := s.cron.AddFunc(refreshCron, func() { s.refresh(ctx) }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}

// RunNow executes the refresh immediately (manual trigger / run on
// start).
func (s *Scheduler) RunNow(ctx context.Context) {
	s.refresh(ctx)
}

func (s *Scheduler) refresh(ctx context.Context) {
	symbols := s.watchlist.Symbols()
	if len(symbols) == 0 {
		return
	}

	start := time.Now()
	result := s.service.GetMarketData(ctx, symbols, s.currency)
	s.metrics.RefreshDur.Observe(time.Since(start).Seconds())

	s.logger.Info("watchlist refreshed",
		zap.Int("requested", len(symbols)),
		zap.Int("quotes", len(result.Quotes)),
		zap.String("source", result.Source),
		zap.Bool("fallback", result.FallbackUsed),
		zap.Strings("missing", result.Missing))

	s.out.Broadcast(map[string]any{
		"type":     "quotes",
		"currency": s.currency,
		"result":   result,
	})
}
