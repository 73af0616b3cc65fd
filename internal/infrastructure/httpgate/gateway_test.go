package httpgate

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/crypto_tracker/internal/metrics"
)

type scriptedTransport struct {
	statuses []int
	calls    int
	lastURL  string
	headers  http.Header
}

func (t *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	idx := t.calls
	if idx >= len(t.statuses) {
		idx = len(t.statuses) - 1
	}
	status := t.statuses[idx]
	t.calls++
	t.lastURL = req.URL.String()
	t.headers = req.Header.Clone()
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(`{"ok":true}`))),
		Header:     make(http.Header),
	}, nil
}

func newTestGateway(t *testing.T, rt http.RoundTripper) (*Gateway, *[]time.Duration) {
	t.Helper()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	g := New("test", time.Second, 3, 2*time.Second, zap.NewNop(), m)
	g.SetTransport(rt)
	var slept []time.Duration
	g.SetSleep(func(d time.Duration) { slept = append(slept, d) })
	g.SetJitter(func() float64 { return 0.5 })
	return g, &slept
}

func TestFetch_SuccessFirstAttempt(t *testing.T) {
	rt := &scriptedTransport{statuses: []int{200}}
	g, slept := newTestGateway(t, rt)

	body, err := g.Fetch(context.Background(), "http://example.test/v1", nil, nil)

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Empty(t, *slept)
}

func TestFetch_RateLimitedThenSuccess(t *testing.T) {
	rt := &scriptedTransport{statuses: []int{429, 429, 200}}
	g, slept := newTestGateway(t, rt)

	_, err := g.Fetch(context.Background(), "http://example.test/v1", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, rt.calls)
	// 2^0 + 0.5 then 2^1 + 0.5 seconds
	require.Len(t, *slept, 2)
	assert.Equal(t, 1500*time.Millisecond, (*slept)[0])
	assert.Equal(t, 2500*time.Millisecond, (*slept)[1])
}

func TestFetch_AttemptsExhausted(t *testing.T) {
	rt := &scriptedTransport{statuses: []int{429, 429, 429}}
	g, slept := newTestGateway(t, rt)

	_, err := g.Fetch(context.Background(), "http://example.test/v1", nil, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "attempts exhausted")
	assert.Equal(t, 3, rt.calls)
	assert.Len(t, *slept, 2, "no sleep after the final attempt")
}

func TestFetch_ServerErrorUsesFixedDelay(t *testing.T) {
	rt := &scriptedTransport{statuses: []int{500, 200}}
	g, slept := newTestGateway(t, rt)

	_, err := g.Fetch(context.Background(), "http://example.test/v1", nil, nil)

	require.NoError(t, err)
	require.Len(t, *slept, 1)
	assert.Equal(t, 2*time.Second, (*slept)[0])
}

func TestFetch_HeadersAndQuery(t *testing.T) {
	rt := &scriptedTransport{statuses: []int{200}}
	g, _ := newTestGateway(t, rt)

	_, err := g.Fetch(context.Background(), "http://example.test/v1",
		map[string]string{"X-CMC_PRO_API_KEY": "secret"},
		map[string][]string{"symbol": {"BTC,ETH"}, "convert": {"USD"}})

	require.NoError(t, err)
	assert.Equal(t, "secret", rt.headers.Get("X-CMC_PRO_API_KEY"))
	assert.Equal(t, "http://example.test/v1?convert=USD&symbol=BTC%2CETH", rt.lastURL)
}

func TestFetch_ContextCancelStopsRetrying(t *testing.T) {
	rt := &scriptedTransport{statuses: []int{429, 429, 429}}
	g, _ := newTestGateway(t, rt)

	ctx, cancel := context.WithCancel(context.Background())
	g.SetSleep(func(time.Duration) { cancel() })

	_, err := g.Fetch(ctx, "http://example.test/v1", nil, nil)

	require.Error(t, err)
	assert.LessOrEqual(t, rt.calls, 2, "cancel after first sleep allows at most one more attempt")
}
