package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/milan604/permcatalog/pkg/config"
	corehttp "github.com/milan604/permcatalog/pkg/http"
	"github.com/milan604/permcatalog/pkg/logger"
)

func newTestHTTPFetcher(t *testing.T, h http.Handler, threshold uint32) *HTTPFetcher {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client := corehttp.NewClient(corehttp.WithRetry(1, time.Millisecond))
	return NewHTTPFetcher(srv.URL+"/", client, BreakerSettings{
		MaxRequests:      1,
		Timeout:          time.Minute,
		FailureThreshold: threshold,
	}, logger.NewNop())
}

func TestHTTPFetcherFetchesUnderBaseURL(t *testing.T) {
	f := newTestHTTPFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/permissions-descriptions.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[{"value":"User.Read"}]`))
	}), 3)

	data, err := f.Fetch(context.Background(), "permissions-descriptions.json")
	require.NoError(t, err)
	require.JSONEq(t, `[{"value":"User.Read"}]`, string(data))
}

func TestHTTPFetcherNotFoundDoesNotTrip(t *testing.T) {
	f := newTestHTTPFetcher(t, http.NotFoundHandler(), 1)

	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), "missing.json")
		require.ErrorIs(t, err, ErrNotFound)
	}
	require.Equal(t, "closed", f.State())
}

func TestHTTPFetcherOpensCircuit(t *testing.T) {
	var calls atomic.Int32
	f := newTestHTTPFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}), 2)

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), "a.json")
		require.ErrorIs(t, err, ErrSourceUnavailable)
	}
	require.Equal(t, "open", f.State())

	_, err := f.Fetch(context.Background(), "a.json")
	require.ErrorIs(t, err, ErrSourceUnavailable)
	require.EqualValues(t, 2, calls.Load(), "open circuit must not reach upstream")
}

func TestFromSettingsHTTPPropagatesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var traceparent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent.Store(r.Header.Get("traceparent"))
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	var s config.Settings
	s.Sources.Kind = "http"
	s.Sources.BaseURL = srv.URL
	s.HTTP.RetryMax = 1
	fetcher, closer, err := FromSettings(s, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer() })

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01},
		SpanID:     trace.SpanID{0x02},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	_, err = fetcher.Fetch(ctx, "permissions.json")
	require.NoError(t, err)
	require.Equal(t, "00-01000000000000000000000000000000-0200000000000000-01", traceparent.Load())
}
