package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/crypto_tracker/internal/domain"
	"github.com/vitos/crypto_tracker/internal/metrics"
	"github.com/vitos/crypto_tracker/internal/usecase"
)

type stubProvider struct {
	name    string
	quotes  []domain.Quote
	dropped domain.Dropped
	series  *domain.PriceSeries
	err     error
}

func (p *stubProvider) GetQuotes(_ context.Context, _ []string, _ string) ([]domain.Quote, domain.Dropped, error) {
	return p.quotes, p.dropped, p.err
}

func (p *stubProvider) GetPriceHistory(_ context.Context, _, _ string, _ int) (*domain.PriceSeries, error) {
	if p.series == nil {
		return nil, domain.ErrNoHistory
	}
	return p.series, nil
}

func (p *stubProvider) Name() string { return p.name }

func newTestServer(primary *stubProvider) *Server {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	svc := usecase.NewMarketService(primary, &stubProvider{name: "fallback"},
		time.Minute, time.Minute, usecase.DefaultMomentumWeights, zap.NewNop(), m)
	watchlist := domain.NewWatchlist([]string{"BTC", "ETH"})
	return NewServer(0, svc, watchlist, NewHub(zap.NewNop()), "usd", zap.NewNop())
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleQuotes(t *testing.T) {
	s := newTestServer(&stubProvider{name: "coinmarketcap", quotes: []domain.Quote{
		{Symbol: "BTC", Price: 50000, PctChange7d: 10, Currency: "USD"},
	}})

	rec := doRequest(s, http.MethodGet, "/api/quotes", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp quotesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Quotes, 1)
	assert.Equal(t, "coinmarketcap", resp.Source)
	assert.False(t, resp.FallbackUsed)
	assert.Equal(t, []string{"ETH"}, resp.Missing)
	assert.InDelta(t, 6.0, resp.Quotes[0].MomentumScore, 1e-9)
}

func TestHandleQuotes_UntranslatableSurfacedSeparately(t *testing.T) {
	s := newTestServer(&stubProvider{
		name:    "coingecko",
		quotes:  []domain.Quote{{Symbol: "BTC", Price: 50000, Currency: "usd"}},
		dropped: domain.Dropped{Untranslatable: []string{"ETH"}},
	})

	rec := doRequest(s, http.MethodGet, "/api/quotes", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp quotesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"ETH"}, resp.Untranslatable)
	assert.Empty(t, resp.Missing)
}

func TestHandleQuotes_UnsupportedCurrency(t *testing.T) {
	s := newTestServer(&stubProvider{name: "coinmarketcap"})

	rec := doRequest(s, http.MethodGet, "/api/quotes?currency=chf", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHistory_NotFound(t *testing.T) {
	s := newTestServer(&stubProvider{name: "coinmarketcap"})

	rec := doRequest(s, http.MethodGet, "/api/history?symbol=BTC", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleHistory_RequiresSymbol(t *testing.T) {
	s := newTestServer(&stubProvider{name: "coinmarketcap"})

	rec := doRequest(s, http.MethodGet, "/api/history", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleIndicators_NaNRenderedAsNull(t *testing.T) {
	points := make([]domain.PricePoint, 25)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range points {
		points[i] = domain.PricePoint{Time: base.Add(time.Duration(i) * time.Hour), Price: 100 + float64(i)}
	}
	s := newTestServer(&stubProvider{name: "coinmarketcap", series: &domain.PriceSeries{
		Symbol: "BTC", Currency: "usd", Points: points,
	}})

	rec := doRequest(s, http.MethodGet, "/api/indicators?symbol=BTC&days=7", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		SMA20 []*float64 `json:"sma_20"`
		RSI14 []*float64 `json:"rsi_14"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.SMA20, 25)
	assert.Nil(t, view.SMA20[0], "positions before the window fills serialize as null")
	assert.NotNil(t, view.SMA20[24])
	assert.NotNil(t, view.RSI14[20])
}

func TestWatchlistEndpoints(t *testing.T) {
	s := newTestServer(&stubProvider{name: "coinmarketcap"})

	rec := doRequest(s, http.MethodPost, "/api/watchlist", `{"symbol": "sol"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var addResp struct {
		Added   bool     `json:"added"`
		Symbols []string `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &addResp))
	assert.True(t, addResp.Added)
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, addResp.Symbols)

	rec = doRequest(s, http.MethodDelete, "/api/watchlist/ETH", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodDelete, "/api/watchlist/ETH", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/watchlist/import", `{"symbols": ["ada", "BTC", "xrp"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var importResp struct {
		Added   int      `json:"added"`
		Symbols []string `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &importResp))
	assert.Equal(t, 2, importResp.Added)
	assert.Equal(t, []string{"BTC", "SOL", "ADA", "XRP"}, importResp.Symbols)
}

func TestWatchlistEndpoints_BadRequests(t *testing.T) {
	s := newTestServer(&stubProvider{name: "coinmarketcap"})

	assert.Equal(t, http.StatusBadRequest,
		doRequest(s, http.MethodPost, "/api/watchlist", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		doRequest(s, http.MethodPost, "/api/watchlist/import", `{"symbols": []}`).Code)
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(&stubProvider{name: "coinmarketcap"})

	rec := doRequest(s, http.MethodGet, "/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		WatchlistSize int    `json:"watchlist_size"`
		Currency      string `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 2, status.WatchlistSize)
	assert.Equal(t, "usd", status.Currency)
}

func TestRequestDays(t *testing.T) {
	s := newTestServer(&stubProvider{name: "coinmarketcap"})

	cases := map[string]int{
		"":     7,
		"0":    7,
		"-3":   7,
		"abc":  7,
		"30":   30,
		"9999": 90,
	}
	for raw, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/history?days="+raw, nil)
		assert.Equal(t, want, s.requestDays(req), "days=%q", raw)
	}
}
