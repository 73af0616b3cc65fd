package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/crypto_tracker/internal/cache"
	"github.com/vitos/crypto_tracker/internal/domain"
	"github.com/vitos/crypto_tracker/internal/metrics"
)

// Default indicator parameters, matching the dashboard panels.
const (
	SMAWindow       = 20
	EMAFastWindow   = 12
	EMASlowWindow   = 26
	RSIWindow       = 14
	SignalWindow    = 9
	BollingerStd    = 2.0
	BollingerWindow = 20
)

// MomentumWeights is the policy for the ad hoc momentum score: a
// weighted sum of the short/medium/long-horizon percent changes.
type MomentumWeights struct {
	W1h  float64
	W24h float64
	W7d  float64
}

// DefaultMomentumWeights favors the longer horizon.
var DefaultMomentumWeights = MomentumWeights{W1h: 0.1, W24h: 0.3, W7d: 0.6}

// MarketResult is the outcome of one market-data call. Quotes come from
// exactly one source per call, so provenance stays unambiguous.
// Untranslatable symbols (no identifier mapping at the serving provider)
// are kept apart from Missing (requested but not returned), so the two
// conditions are never conflated downstream.
type MarketResult struct {
	Quotes         []domain.Quote `json:"quotes"`
	Source         string         `json:"source"`
	FallbackUsed   bool           `json:"fallback_used"`
	Missing        []string       `json:"missing"`
	Untranslatable []string       `json:"untranslatable"`
	FetchedAt      time.Time      `json:"fetched_at"`
}

// MarketService orchestrates the dual-source fetch: primary provider
// first, secondary on failure, with a TTL cache in front of both.
type MarketService struct {
	primary   domain.QuoteProvider
	secondary domain.QuoteProvider

	quoteCache   *cache.TTL[*MarketResult]
	historyCache *cache.TTL[*domain.PriceSeries]

	weights MomentumWeights
	logger  *zap.Logger
	metrics *metrics.Metrics
	timeNow func() time.Time // for testing
}

func NewMarketService(
	primary, secondary domain.QuoteProvider,
	quotesTTL, historyTTL time.Duration,
	weights MomentumWeights,
	logger *zap.Logger,
	m *metrics.Metrics,
) *MarketService {
	if weights == (MomentumWeights{}) {
		weights = DefaultMomentumWeights
	}
	return &MarketService{
		primary:      primary,
		secondary:    secondary,
		quoteCache:   cache.New[*MarketResult](quotesTTL),
		historyCache: cache.New[*domain.PriceSeries](historyTTL),
		weights:      weights,
		logger:       logger,
		metrics:      m,
		timeNow:      time.Now,
	}
}

// GetMarketData returns quotes for the requested symbols. The primary
// result is used iff it is non-empty and covers at least one requested
// symbol; otherwise the secondary provider is called with the same
// symbols. When both are unusable the result is empty, never an error:
// total fetch failure degrades to "no data".
func (s *MarketService) GetMarketData(ctx context.Context, symbols []string, currency string) *MarketResult {
	requested := normalizeSymbols(symbols)
	if len(requested) == 0 {
		return &MarketResult{Quotes: []domain.Quote{}, Source: "none", FetchedAt: s.timeNow()}
	}

	key := cache.Key("quotes", requested, currency)
	if cached, _, ok := s.quoteCache.Get(key); ok {
		s.metrics.CacheHits.WithLabelValues("quotes").Inc()
		return cached
	}
	s.metrics.CacheMisses.WithLabelValues("quotes").Inc()

	quotes, source, fallback, untranslatable := s.fetchQuotes(ctx, requested, currency)
	result := &MarketResult{
		Quotes:         quotes,
		Source:         source,
		FallbackUsed:   fallback,
		Missing:        missingSymbols(requested, quotes, untranslatable),
		Untranslatable: untranslatable,
		FetchedAt:      s.timeNow(),
	}
	s.metrics.QuotesReturned.Add(float64(len(quotes)))

	if len(quotes) > 0 {
		s.quoteCache.Set(key, result)
	}
	return result
}

func (s *MarketService) fetchQuotes(ctx context.Context, symbols []string, currency string) ([]domain.Quote, string, bool, []string) {
	quotes, dropped, err := s.primary.GetQuotes(ctx, symbols, strings.ToUpper(currency))
	if usable(quotes, symbols) {
		return quotes, s.primary.Name(), false, dropped.Untranslatable
	}
	if err != nil {
		s.logger.Warn("primary provider failed, falling back",
			zap.String("provider", s.primary.Name()), zap.Error(err))
	} else {
		s.logger.Warn("primary provider returned no usable data, falling back",
			zap.String("provider", s.primary.Name()),
			zap.Strings("unrecognized", dropped.Unrecognized))
	}
	s.metrics.FallbacksTotal.Inc()

	quotes, dropped, err = s.secondary.GetQuotes(ctx, symbols, strings.ToLower(currency))
	if usable(quotes, symbols) {
		return quotes, s.secondary.Name(), true, dropped.Untranslatable
	}
	if err != nil {
		s.logger.Error("secondary provider failed, no data",
			zap.String("provider", s.secondary.Name()), zap.Error(err))
	}
	if len(dropped.Untranslatable) > 0 || len(dropped.Unrecognized) > 0 {
		s.logger.Warn("symbols dropped by secondary provider",
			zap.Strings("untranslatable", dropped.Untranslatable),
			zap.Strings("unrecognized", dropped.Unrecognized))
	}
	return []domain.Quote{}, "none", true, dropped.Untranslatable
}

// GetPriceHistory returns the price series for one symbol, preferring
// the primary provider and falling back to the secondary. ErrNoHistory
// propagates so callers can tell "no data" from a flat price.
func (s *MarketService) GetPriceHistory(ctx context.Context, symbol, currency string, days int) (*domain.PriceSeries, error) {
	key := cache.Key("history", []string{strings.ToUpper(symbol)}, currency, days)
	if cached, _, ok := s.historyCache.Get(key); ok {
		s.metrics.CacheHits.WithLabelValues("history").Inc()
		return cached, nil
	}
	s.metrics.CacheMisses.WithLabelValues("history").Inc()

	series, err := s.primary.GetPriceHistory(ctx, symbol, currency, days)
	if err != nil {
		series, err = s.secondary.GetPriceHistory(ctx, symbol, currency, days)
	}
	if err != nil {
		return nil, err
	}
	s.historyCache.Set(key, series)
	return series, nil
}

// MomentumScore applies the configured weighting policy to a quote's
// percent changes.
func (s *MarketService) MomentumScore(q domain.Quote) float64 {
	return s.weights.W1h*q.PctChange1h + s.weights.W24h*q.PctChange24h + s.weights.W7d*q.PctChange7d
}

// IndicatorSet bundles the derived series for one instrument. All
// slices are aligned to Times/Prices; NaN marks positions where the
// rolling window is not yet full.
type IndicatorSet struct {
	Symbol   string
	Currency string
	Days     int

	Times  []time.Time
	Prices []float64

	PctChange  []float64
	SMA20      []float64
	EMA12      []float64
	EMA26      []float64
	RSI14      []float64
	MACD       []float64
	MACDSignal []float64
	BollUpper  []float64
	BollMiddle []float64
	BollLower  []float64
}

// GetIndicators fetches history and derives the full indicator set.
func (s *MarketService) GetIndicators(ctx context.Context, symbol, currency string, days int) (*IndicatorSet, error) {
	series, err := s.GetPriceHistory(ctx, symbol, currency, days)
	if err != nil {
		return nil, err
	}

	closes := series.Closes()
	times := make([]time.Time, len(series.Points))
	for i, p := range series.Points {
		times[i] = p.Time
	}

	set := &IndicatorSet{
		Symbol:    series.Symbol,
		Currency:  series.Currency,
		Days:      days,
		Times:     times,
		Prices:    closes,
		PctChange: StepChanges(closes),
		SMA20:     SMA(closes, SMAWindow),
		EMA12:     EMA(closes, EMAFastWindow),
		EMA26:     EMA(closes, EMASlowWindow),
		RSI14:     RSI(closes, RSIWindow),
	}
	set.MACD, set.MACDSignal = MACD(closes, EMAFastWindow, EMASlowWindow, SignalWindow)
	set.BollUpper, set.BollMiddle, set.BollLower = BollingerBands(closes, BollingerWindow, BollingerStd)
	return set, nil
}

// SetClock overrides the service and cache clocks, for tests.
func (s *MarketService) SetClock(now func() time.Time) {
	s.timeNow = now
	s.quoteCache.SetClock(now)
	s.historyCache.SetClock(now)
}

// usable reports whether a provider result is non-empty and covers at
// least one requested symbol.
func usable(quotes []domain.Quote, requested []string) bool {
	if len(quotes) == 0 {
		return false
	}
	want := make(map[string]bool, len(requested))
	for _, s := range requested {
		want[strings.ToUpper(s)] = true
	}
	for _, q := range quotes {
		if want[strings.ToUpper(q.Symbol)] {
			return true
		}
	}
	return false
}

// missingSymbols is the requested set minus returned quotes minus
// symbols already reported as untranslatable.
func missingSymbols(requested []string, quotes []domain.Quote, untranslatable []string) []string {
	got := make(map[string]bool, len(quotes)+len(untranslatable))
	for _, q := range quotes {
		got[strings.ToUpper(q.Symbol)] = true
	}
	for _, s := range untranslatable {
		got[strings.ToUpper(s)] = true
	}
	missing := []string{}
	for _, s := range requested {
		if !got[s] {
			missing = append(missing, s)
		}
	}
	return missing
}

func normalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
