package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/crypto_tracker/internal/domain"
	"github.com/vitos/crypto_tracker/internal/infrastructure/httpgate"
	"github.com/vitos/crypto_tracker/internal/metrics"
)

const (
	CoinGeckoBaseURL = "https://api.coingecko.com/api/v3"

	// Conservative default; the unauthenticated API tolerates more but
	// throttles aggressively.
	DefaultGeckoBatchLimit = 5
)

// CoinGecko is the fallback quote provider and the only history source.
// It addresses coins by slug, so tickers go through a static translation
// table; tickers without an entry are not sent upstream at all.
type CoinGecko struct {
	baseURL    string
	batchLimit int
	gateway    *httpgate.Gateway
	logger     *zap.Logger
	metrics    *metrics.Metrics
	symbolMap  map[string]string
}

func NewCoinGecko(baseURL string, batchLimit int, gateway *httpgate.Gateway, logger *zap.Logger, m *metrics.Metrics) *CoinGecko {
	if baseURL == "" {
		baseURL = CoinGeckoBaseURL
	}
	if batchLimit <= 0 {
		batchLimit = DefaultGeckoBatchLimit
	}
	return &CoinGecko{
		baseURL:    strings.TrimRight(baseURL, "/"),
		batchLimit: batchLimit,
		gateway:    gateway,
		logger:     logger,
		metrics:    m,
		symbolMap:  DefaultSymbolMap,
	}
}

func (c *CoinGecko) Name() string { return "coingecko" }

type geckoMarket struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"current_price"`
	PctChange1h  float64 `json:"price_change_percentage_1h_in_currency"`
	PctChange24h float64 `json:"price_change_percentage_24h_in_currency"`
	PctChange7d  float64 `json:"price_change_percentage_7d_in_currency"`
	MarketCap    float64 `json:"market_cap"`
	TotalVolume  float64 `json:"total_volume"`
}

// GetQuotes translates tickers to slugs, fetches markets in batches and
// returns quotes in input symbol order. Untranslatable tickers and
// slugs missing from the response are reported apart, never merged.
func (c *CoinGecko) GetQuotes(ctx context.Context, symbols []string, currency string) ([]domain.Quote, domain.Dropped, error) {
	vsCurrency := strings.ToLower(currency)

	var dropped domain.Dropped
	ids := make([]string, 0, len(symbols))
	idToSymbol := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		id, ok := c.symbolMap[strings.ToUpper(symbol)]
		if !ok {
			dropped.Untranslatable = append(dropped.Untranslatable, symbol)
			c.metrics.UnmappedSymbols.Inc()
			c.logger.Warn("no coingecko id mapping, symbol excluded",
				zap.String("symbol", symbol))
			continue
		}
		ids = append(ids, id)
		idToSymbol[id] = strings.ToUpper(symbol)
	}

	bySymbol := make(map[string]domain.Quote, len(ids))
	var lastErr error
	for _, batch := range batches(ids, c.batchLimit) {
		params := url.Values{}
		params.Set("vs_currency", vsCurrency)
		params.Set("ids", strings.Join(batch, ","))
		params.Set("price_change_percentage", "1h,24h,7d")

		body, err := c.gateway.Fetch(ctx, c.baseURL+"/coins/markets", nil, params)
		if err != nil {
			lastErr = err
			continue
		}

		var markets []geckoMarket
		if err := json.Unmarshal(body, &markets); err != nil {
			lastErr = fmt.Errorf("decode markets: %w", err)
			c.logger.Warn("malformed markets payload", zap.String("provider", c.Name()), zap.Error(err))
			continue
		}

		for _, m := range markets {
			symbol, ok := idToSymbol[m.ID]
			if !ok {
				continue
			}
			bySymbol[symbol] = domain.Quote{
				Name:         m.Name,
				Symbol:       symbol,
				Price:        m.CurrentPrice,
				PctChange1h:  m.PctChange1h,
				PctChange24h: m.PctChange24h,
				PctChange7d:  m.PctChange7d,
				MarketCap:    m.MarketCap,
				Volume24h:    m.TotalVolume,
				Currency:     vsCurrency,
			}
		}
	}

	quotes := make([]domain.Quote, 0, len(bySymbol))
	for _, symbol := range symbols {
		upper := strings.ToUpper(symbol)
		if q, ok := bySymbol[upper]; ok {
			quotes = append(quotes, q)
		} else if _, mapped := c.symbolMap[upper]; mapped {
			dropped.Unrecognized = append(dropped.Unrecognized, symbol)
		}
	}

	if len(quotes) == 0 && lastErr != nil {
		return nil, dropped, lastErr
	}
	return quotes, dropped, nil
}

type geckoChart struct {
	Prices [][2]float64 `json:"prices"`
}

// GetPriceHistory fetches the market chart for one symbol. The returned
// series is ascending by time with duplicate timestamps collapsed.
// A coin with no data yields ErrNoHistory, not an empty series.
func (c *CoinGecko) GetPriceHistory(ctx context.Context, symbol, currency string, days int) (*domain.PriceSeries, error) {
	id, ok := c.symbolMap[strings.ToUpper(symbol)]
	if !ok {
		c.metrics.UnmappedSymbols.Inc()
		return nil, fmt.Errorf("no coingecko id mapping for %q", symbol)
	}
	vsCurrency := strings.ToLower(currency)

	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("days", strconv.Itoa(days))

	body, err := c.gateway.Fetch(ctx, c.baseURL+"/coins/"+url.PathEscape(id)+"/market_chart", nil, params)
	if err != nil {
		return nil, err
	}

	var chart geckoChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode market chart: %w", err)
	}
	if len(chart.Prices) == 0 {
		return nil, domain.ErrNoHistory
	}

	series := &domain.PriceSeries{
		Symbol:   strings.ToUpper(symbol),
		Currency: vsCurrency,
		Points:   make([]domain.PricePoint, 0, len(chart.Prices)),
	}
	var lastTS int64
	for _, p := range chart.Prices {
		ts := int64(p[0])
		if len(series.Points) > 0 && ts <= lastTS {
			continue
		}
		series.Points = append(series.Points, domain.PricePoint{
			Time:  time.UnixMilli(ts),
			Price: p[1],
		})
		lastTS = ts
	}
	return series, nil
}
