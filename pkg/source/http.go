package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	corehttp "github.com/milan604/permcatalog/pkg/http"
	"github.com/milan604/permcatalog/pkg/logger"
)

// HTTPFetcher downloads documents from <BaseURL>/<name>. A circuit breaker
// stops hammering an upstream that keeps failing.
type HTTPFetcher struct {
	BaseURL string
	client  corehttp.DocumentGetter
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     logger.LogManager
}

// NewHTTPFetcher builds an HTTP fetcher. A nil client gets the default one.
func NewHTTPFetcher(baseURL string, client corehttp.DocumentGetter, bs BreakerSettings, log logger.LogManager) *HTTPFetcher {
	if client == nil {
		client = corehttp.NewClient(append(clientHooks(log), corehttp.WithLogger(log))...)
	}
	threshold := bs.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	f := &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log,
	}
	f.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "source:" + f.BaseURL,
		MaxRequests: bs.MaxRequests,
		Interval:    bs.Interval,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A missing document is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.WarnF("circuit breaker %s: %s -> %s", name, from, to)
			}
		},
	})
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	target := f.BaseURL + "/" + url.PathEscape(name)

	body, err := f.breaker.Execute(func() ([]byte, error) {
		data, err := f.client.GetBytes(ctx, target)
		if corehttp.IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return data, err
	})
	switch {
	case err == nil:
		return body, nil
	case errors.Is(err, ErrNotFound):
		return nil, err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, name, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: fetch %s: %w", ErrSourceUnavailable, name, err)
	}
}

// clientHooks forward the caller's trace context to the document host and
// log every upstream response at debug level.
func clientHooks(log logger.LogManager) []corehttp.ClientOption {
	return []corehttp.ClientOption{
		corehttp.WithRequestHook(func(req *http.Request) error {
			otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))
			return nil
		}),
		corehttp.WithResponseHook(func(resp *http.Response) error {
			if log != nil && resp.Request != nil {
				log.DebugFCtx(resp.Request.Context(), "source %s: %s", resp.Request.URL.Redacted(), resp.Status)
			}
			return nil
		}),
	}
}

// State reports the breaker state, for health output.
func (f *HTTPFetcher) State() string {
	return f.breaker.State().String()
}
