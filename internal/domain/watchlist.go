package domain

import (
	"strings"
	"sync"
)

// Watchlist is an ordered set of instrument symbols, unique
// case-insensitively. Symbols are stored uppercased. It is read by the
// fetch pipeline and mutated by the web layer, so access is guarded.
type Watchlist struct {
	mu      sync.Mutex
	symbols []string
}

// NewWatchlist creates a watchlist seeded with the given symbols.
// Duplicates (case-insensitive) are collapsed, first occurrence wins.
func NewWatchlist(initial []string) *Watchlist {
	w := &Watchlist{}
	for _, s := range initial {
		w.Add(s)
	}
	return w
}

// Add appends a symbol if it is not already present. Returns true if
// the symbol was added.
func (w *Watchlist) Add(symbol string) bool {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.symbols {
		if s == symbol {
			return false
		}
	}
	w.symbols = append(w.symbols, symbol)
	return true
}

// Remove deletes a symbol. Returns true if it was present.
func (w *Watchlist) Remove(symbol string) bool {
	symbol = normalizeSymbol(symbol)
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, s := range w.symbols {
		if s == symbol {
			w.symbols = append(w.symbols[:i], w.symbols[i+1:]...)
			return true
		}
	}
	return false
}

// Import merges an externally supplied list (e.g. a parsed spreadsheet
// column) into the watchlist, preserving existing order and appending
// new symbols in input order. Returns the number of symbols added.
func (w *Watchlist) Import(symbols []string) int {
	added := 0
	for _, s := range symbols {
		if w.Add(s) {
			added++
		}
	}
	return added
}

// Symbols returns a copy of the current symbols in order.
func (w *Watchlist) Symbols() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.symbols))
	copy(out, w.symbols)
	return out
}

// Len returns the number of symbols.
func (w *Watchlist) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.symbols)
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
