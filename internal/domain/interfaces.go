package domain

import (
	"context"
	"errors"
)

// ErrNoHistory is returned when a provider has no historical data for an
// instrument, so callers can tell "no data" apart from a flat or empty
// series.
var ErrNoHistory = errors.New("provider has no history for instrument")

// Dropped reports symbols a provider could not serve, keeping the two
// conditions apart: Untranslatable symbols have no identifier mapping
// and were never sent upstream; Unrecognized symbols were requested but
// the provider returned no data for them.
type Dropped struct {
	Untranslatable []string
	Unrecognized   []string
}

// QuoteProvider defines the interface for fetching market data from one
// pricing API.
type QuoteProvider interface {
	// GetQuotes returns normalized quotes for the given symbols in the
	// given quote currency. Symbols dropped before or during the call
	// are reported in Dropped, never conflated with a transport
	// failure.
	GetQuotes(ctx context.Context, symbols []string, currency string) ([]Quote, Dropped, error)

	// GetPriceHistory returns the price series for one symbol over the
	// trailing number of days, or ErrNoHistory when the provider has
	// nothing for it.
	GetPriceHistory(ctx context.Context, symbol, currency string, days int) (*PriceSeries, error)

	Name() string
}
