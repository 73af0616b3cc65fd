package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/vitos/crypto_tracker/internal/domain"
	"github.com/vitos/crypto_tracker/internal/infrastructure/httpgate"
)

const (
	CoinMarketCapBaseURL = "https://pro-api.coinmarketcap.com/v1"

	// Documented per-call symbol limit for the quotes endpoint on the
	// plan this tracker targets.
	DefaultCMCBatchLimit = 10
)

// CoinMarketCap is the primary quote provider. Symbols are its native
// identifier namespace, so no translation table is needed.
type CoinMarketCap struct {
	baseURL    string
	apiKey     string
	batchLimit int
	gateway    *httpgate.Gateway
	logger     *zap.Logger
}

func NewCoinMarketCap(baseURL, apiKey string, batchLimit int, gateway *httpgate.Gateway, logger *zap.Logger) *CoinMarketCap {
	if baseURL == "" {
		baseURL = CoinMarketCapBaseURL
	}
	if batchLimit <= 0 {
		batchLimit = DefaultCMCBatchLimit
	}
	return &CoinMarketCap{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		batchLimit: batchLimit,
		gateway:    gateway,
		logger:     logger,
	}
}

func (c *CoinMarketCap) Name() string { return "coinmarketcap" }

type cmcQuote struct {
	Price            float64 `json:"price"`
	PercentChange1h  float64 `json:"percent_change_1h"`
	PercentChange24h float64 `json:"percent_change_24h"`
	PercentChange7d  float64 `json:"percent_change_7d"`
	MarketCap        float64 `json:"market_cap"`
	Volume24h        float64 `json:"volume_24h"`
}

type cmcCoin struct {
	Name   string              `json:"name"`
	Symbol string              `json:"symbol"`
	Quote  map[string]cmcQuote `json:"quote"`
}

type cmcResponse struct {
	Data map[string]json.RawMessage `json:"data"`
}

// GetQuotes fetches latest quotes in batches no larger than the per-call
// limit. Symbols the API does not recognize are skipped and reported as
// unrecognized; one bad symbol never aborts its batch.
func (c *CoinMarketCap) GetQuotes(ctx context.Context, symbols []string, currency string) ([]domain.Quote, domain.Dropped, error) {
	convert := strings.ToUpper(currency)
	quotes := make([]domain.Quote, 0, len(symbols))
	var dropped domain.Dropped
	var lastErr error

	for _, batch := range batches(symbols, c.batchLimit) {
		params := url.Values{}
		params.Set("symbol", strings.Join(batch, ","))
		params.Set("convert", convert)
		headers := map[string]string{"X-CMC_PRO_API_KEY": c.apiKey}

		body, err := c.gateway.Fetch(ctx, c.baseURL+"/cryptocurrency/quotes/latest", headers, params)
		if err != nil {
			lastErr = err
			continue
		}

		var resp cmcResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			lastErr = fmt.Errorf("decode quotes: %w", err)
			c.logger.Warn("malformed quotes payload", zap.String("provider", c.Name()), zap.Error(err))
			continue
		}

		for _, symbol := range batch {
			raw, ok := resp.Data[symbol]
			if !ok {
				dropped.Unrecognized = append(dropped.Unrecognized, symbol)
				continue
			}
			coin, ok := decodeCMCCoin(raw)
			if !ok {
				dropped.Unrecognized = append(dropped.Unrecognized, symbol)
				continue
			}
			q := coin.Quote[convert]
			quotes = append(quotes, domain.Quote{
				Name:         coin.Name,
				Symbol:       symbol,
				Price:        q.Price,
				PctChange1h:  q.PercentChange1h,
				PctChange24h: q.PercentChange24h,
				PctChange7d:  q.PercentChange7d,
				MarketCap:    q.MarketCap,
				Volume24h:    q.Volume24h,
				Currency:     convert,
			})
		}
	}

	if len(quotes) == 0 && lastErr != nil {
		return nil, dropped, lastErr
	}
	return quotes, dropped, nil
}

// decodeCMCCoin accepts both payload shapes the API has used: a single
// object per symbol (v1) and an array of objects (v2).
func decodeCMCCoin(raw json.RawMessage) (cmcCoin, bool) {
	var coin cmcCoin
	if err := json.Unmarshal(raw, &coin); err == nil && coin.Symbol != "" {
		return coin, true
	}
	var coins []cmcCoin
	if err := json.Unmarshal(raw, &coins); err == nil && len(coins) > 0 {
		return coins[0], true
	}
	return cmcCoin{}, false
}

// GetPriceHistory is unavailable on the primary provider's free tier;
// history is always served by the fallback provider.
func (c *CoinMarketCap) GetPriceHistory(ctx context.Context, symbol, currency string, days int) (*domain.PriceSeries, error) {
	return nil, domain.ErrNoHistory
}
