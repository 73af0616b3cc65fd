package web

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/crypto_tracker/internal/config"
	"github.com/vitos/crypto_tracker/internal/domain"
	"github.com/vitos/crypto_tracker/internal/usecase"
)

const (
	defaultHistoryDays = 7
	maxHistoryDays     = 90
)

type quoteView struct {
	domain.Quote
	MomentumScore float64 `json:"momentum_score"`
}

type quotesResponse struct {
	Quotes         []quoteView `json:"quotes"`
	Source         string      `json:"source"`
	FallbackUsed   bool        `json:"fallback_used"`
	Missing        []string    `json:"missing"`
	Untranslatable []string    `json:"untranslatable"`
	Currency       string      `json:"currency"`
	FetchedAt      time.Time   `json:"fetched_at"`
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	currency, ok := s.requestCurrency(w, r)
	if !ok {
		return
	}

	result := s.service.GetMarketData(r.Context(), s.watchlist.Symbols(), currency)
	s.writeJSON(w, s.quotesView(result, currency))
}

func (s *Server) quotesView(result *usecase.MarketResult, currency string) quotesResponse {
	views := make([]quoteView, len(result.Quotes))
	for i, q := range result.Quotes {
		views[i] = quoteView{Quote: q, MomentumScore: s.service.MomentumScore(q)}
	}
	return quotesResponse{
		Quotes:         views,
		Source:         result.Source,
		FallbackUsed:   result.FallbackUsed,
		Missing:        result.Missing,
		Untranslatable: result.Untranslatable,
		Currency:       currency,
		FetchedAt:      result.FetchedAt,
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	currency, ok := s.requestCurrency(w, r)
	if !ok {
		return
	}
	days := s.requestDays(r)

	series, err := s.service.GetPriceHistory(r.Context(), symbol, currency, days)
	if err != nil {
		if errors.Is(err, domain.ErrNoHistory) {
			http.Error(w, "no history for symbol", http.StatusNotFound)
			return
		}
		s.logger.Error("history fetch failed", zap.String("symbol", symbol), zap.Error(err))
		http.Error(w, "history unavailable", http.StatusBadGateway)
		return
	}
	s.writeJSON(w, series)
}

type indicatorView struct {
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
	Days     int    `json:"days"`

	Times  []time.Time `json:"times"`
	Prices []float64   `json:"prices"`

	PctChange  []*float64 `json:"pct_change"`
	SMA20      []*float64 `json:"sma_20"`
	EMA12      []*float64 `json:"ema_12"`
	EMA26      []*float64 `json:"ema_26"`
	RSI14      []*float64 `json:"rsi_14"`
	MACD       []*float64 `json:"macd"`
	MACDSignal []*float64 `json:"macd_signal"`
	BollUpper  []*float64 `json:"boll_upper"`
	BollMiddle []*float64 `json:"boll_middle"`
	BollLower  []*float64 `json:"boll_lower"`
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	currency, ok := s.requestCurrency(w, r)
	if !ok {
		return
	}
	days := s.requestDays(r)

	set, err := s.service.GetIndicators(r.Context(), symbol, currency, days)
	if err != nil {
		if errors.Is(err, domain.ErrNoHistory) {
			http.Error(w, "no history for symbol", http.StatusNotFound)
			return
		}
		s.logger.Error("indicator fetch failed", zap.String("symbol", symbol), zap.Error(err))
		http.Error(w, "indicators unavailable", http.StatusBadGateway)
		return
	}

	s.writeJSON(w, indicatorView{
		Symbol:     set.Symbol,
		Currency:   set.Currency,
		Days:       set.Days,
		Times:      set.Times,
		Prices:     set.Prices,
		PctChange:  nullableFloats(set.PctChange),
		SMA20:      nullableFloats(set.SMA20),
		EMA12:      nullableFloats(set.EMA12),
		EMA26:      nullableFloats(set.EMA26),
		RSI14:      nullableFloats(set.RSI14),
		MACD:       nullableFloats(set.MACD),
		MACDSignal: nullableFloats(set.MACDSignal),
		BollUpper:  nullableFloats(set.BollUpper),
		BollMiddle: nullableFloats(set.BollMiddle),
		BollLower:  nullableFloats(set.BollLower),
	})
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{"symbols": s.watchlist.Symbols()})
}

func (s *Server) handleAddSymbol(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	added := s.watchlist.Add(req.Symbol)
	s.writeJSON(w, map[string]any{"added": added, "symbols": s.watchlist.Symbols()})
}

func (s *Server) handleRemoveSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	removed := s.watchlist.Remove(symbol)
	if !removed {
		http.Error(w, "symbol not in watchlist", http.StatusNotFound)
		return
	}
	s.writeJSON(w, map[string]any{"removed": true, "symbols": s.watchlist.Symbols()})
}

// handleImport merges an externally parsed symbol list (e.g. the
// spreadsheet column the UI extracted) into the watchlist.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbols []string `json:"symbols"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Symbols) == 0 {
		http.Error(w, "symbols list is required", http.StatusBadRequest)
		return
	}
	added := s.watchlist.Import(req.Symbols)
	s.writeJSON(w, map[string]any{"added": added, "symbols": s.watchlist.Symbols()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"watchlist_size": s.watchlist.Len(),
		"ws_clients":     s.hub.ClientCount(),
		"currency":       s.currency,
	})
}

func (s *Server) requestCurrency(w http.ResponseWriter, r *http.Request) (string, bool) {
	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = s.currency
	}
	if !config.IsSupportedCurrency(currency) {
		http.Error(w, "unsupported currency", http.StatusBadRequest)
		return "", false
	}
	return currency, true
}

func (s *Server) requestDays(r *http.Request) int {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days < 1 {
		return defaultHistoryDays
	}
	if days > maxHistoryDays {
		return maxHistoryDays
	}
	return days
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
	}
}

// nullableFloats maps NaN positions (window not yet full) to JSON null.
func nullableFloats(vals []float64) []*float64 {
	out := make([]*float64, len(vals))
	for i := range vals {
		if !math.IsNaN(vals[i]) {
			v := vals[i]
			out[i] = &v
		}
	}
	return out
}
