// Package cache provides the memoization boundary between the market
// service and the provider adapters, so repeated dashboard refreshes do
// not burn provider rate limits.
package cache

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	fetchedAt time.Time
	expiry    time.Time
}

// TTL is a time-to-live keyed cache. Zero value is not usable; create
// with New.
type TTL[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	timeNow func() time.Time // for testing
}

func New[V any](ttl time.Duration) *TTL[V] {
	return &TTL[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		timeNow: time.Now,
	}
}

// SetClock replaces the clock, for tests.
func (c *TTL[V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeNow = now
}

// Get returns the cached value and its fetch time if present and not
// expired. Expired entries are evicted on read.
func (c *TTL[V]) Get(key string) (V, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, time.Time{}, false
	}
	if c.timeNow().After(e.expiry) {
		delete(c.entries, key)
		var zero V
		return zero, time.Time{}, false
	}
	return e.value, e.fetchedAt, true
}

// Set stores a value under the key with the cache's TTL.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.timeNow()
	c.entries[key] = entry[V]{value: value, fetchedAt: now, expiry: now.Add(c.ttl)}
}

// Key builds a cache key from an endpoint kind, a symbol set (order
// insensitive) and the quote currency. Extra parts (e.g. a day count)
// are appended as-is.
func Key(kind string, symbols []string, currency string, extra ...int) string {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)
	parts := []string{kind, strings.Join(sorted, ","), strings.ToLower(currency)}
	for _, n := range extra {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, "|")
}
