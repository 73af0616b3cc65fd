package domain

import "time"

// Quote is one instrument's market snapshot, normalized across providers.
// Fields a provider does not return stay at their zero value; the record
// is still emitted with partial data.
type Quote struct {
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	Price        float64 `json:"price"`
	PctChange1h  float64 `json:"pct_change_1h"`
	PctChange24h float64 `json:"pct_change_24h"`
	PctChange7d  float64 `json:"pct_change_7d"`
	MarketCap    float64 `json:"market_cap"`
	Volume24h    float64 `json:"volume_24h"`
	Currency     string  `json:"currency"`
}

type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// PriceSeries is an ordered price history for one instrument, ascending
// by time with no duplicate timestamps. It is built fresh per request
// and never mutated in place; derived indicator series are computed into
// new aligned slices.
type PriceSeries struct {
	Symbol   string       `json:"symbol"`
	Currency string       `json:"currency"`
	Points   []PricePoint `json:"points"`
}

// Closes returns the price column of the series.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Price
	}
	return closes
}
