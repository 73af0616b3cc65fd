package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchlist_AddNormalizesAndDedupes(t *testing.T) {
	w := NewWatchlist(nil)

	assert.True(t, w.Add("btc"))
	assert.False(t, w.Add(" BTC "))
	assert.False(t, w.Add(""))
	assert.True(t, w.Add("eth"))

	assert.Equal(t, []string{"BTC", "ETH"}, w.Symbols())
}

func TestWatchlist_SeededOrder(t *testing.T) {
	w := NewWatchlist([]string{"BTC", "eth", "BTC", "SOL"})
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, w.Symbols())
	assert.Equal(t, 3, w.Len())
}

func TestWatchlist_Remove(t *testing.T) {
	w := NewWatchlist([]string{"BTC", "ETH", "SOL"})

	assert.True(t, w.Remove("eth"))
	assert.False(t, w.Remove("ETH"))
	assert.False(t, w.Remove("XRP"))

	assert.Equal(t, []string{"BTC", "SOL"}, w.Symbols())
}

func TestWatchlist_Import(t *testing.T) {
	w := NewWatchlist([]string{"BTC"})

	added := w.Import([]string{"btc", "ETH", "sol", "ETH"})

	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, w.Symbols())
}

func TestWatchlist_SymbolsReturnsCopy(t *testing.T) {
	w := NewWatchlist([]string{"BTC", "ETH"})

	got := w.Symbols()
	got[0] = "DOGE"

	assert.Equal(t, []string{"BTC", "ETH"}, w.Symbols())
}
