// Package httpgate issues the outbound GET requests for the provider
// adapters, absorbing rate limits and transient failures locally so the
// adapters above it only ever see a body or a failure value.
package httpgate

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/crypto_tracker/internal/metrics"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

// Gateway is a retrying HTTP GET client bound to one provider, so its
// logs and metrics carry the provider name.
type Gateway struct {
	provider    string
	client      *http.Client
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger
	metrics     *metrics.Metrics

	sleep  func(time.Duration) // for testing
	jitter func() float64      // for testing
}

func New(provider string, timeout time.Duration, maxAttempts int, retryDelay time.Duration, logger *zap.Logger, m *metrics.Metrics) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Gateway{
		provider:    provider,
		client:      &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		logger:      logger,
		metrics:     m,
		sleep:       time.Sleep,
		jitter:      rand.Float64,
	}
}

// SetTransport replaces the underlying transport, for tests.
func (g *Gateway) SetTransport(rt http.RoundTripper) {
	g.client.Transport = rt
}

// SetSleep replaces the sleep function, for tests.
func (g *Gateway) SetSleep(sleep func(time.Duration)) {
	g.sleep = sleep
}

// SetJitter replaces the jitter source, for tests.
func (g *Gateway) SetJitter(jitter func() float64) {
	g.jitter = jitter
}

// Fetch issues a GET against rawURL with the given headers and query
// parameters. HTTP 429 triggers exponential backoff with jitter
// (2^attempt plus up to one second); any other failure waits a fixed
// short delay. After the attempt budget is exhausted the error is
// returned as a value; callers treat it the same as an empty result.
func (g *Gateway) Fetch(ctx context.Context, rawURL string, headers map[string]string, query url.Values) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		g.metrics.RequestAttempts.WithLabelValues(g.provider).Inc()

		body, rateLimited, err := g.attempt(ctx, rawURL, headers, query)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == g.maxAttempts-1 {
			break
		}
		if rateLimited {
			delay := g.backoff(attempt)
			g.metrics.Retries.WithLabelValues(g.provider, "rate_limited").Inc()
			g.logger.Warn("rate limited, backing off",
				zap.String("provider", g.provider),
				zap.Duration("delay", delay),
				zap.Int("attempt", attempt+1))
			g.sleep(delay)
		} else {
			g.metrics.Retries.WithLabelValues(g.provider, "error").Inc()
			g.logger.Warn("request failed, retrying",
				zap.String("provider", g.provider),
				zap.Error(err),
				zap.Int("attempt", attempt+1))
			g.sleep(g.retryDelay)
		}
	}

	g.metrics.RequestFailures.WithLabelValues(g.provider).Inc()
	return nil, fmt.Errorf("%s: attempts exhausted: %w", g.provider, lastErr)
}

func (g *Gateway) attempt(ctx context.Context, rawURL string, headers map[string]string, query url.Values) (body []byte, rateLimited bool, err error) {
	u := rawURL
	if len(query) > 0 {
		u = rawURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("status 429")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, false, nil
}

func (g *Gateway) backoff(attempt int) time.Duration {
	secs := math.Pow(2, float64(attempt)) + g.jitter()
	return time.Duration(secs * float64(time.Second))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
