// Package source fetches the static documents the permission catalog is
// built from: local files, HTTP URLs, optionally through a Redis cache.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/milan604/permcatalog/pkg/config"
	corehttp "github.com/milan604/permcatalog/pkg/http"
	"github.com/milan604/permcatalog/pkg/logger"
)

var (
	// ErrNotFound is returned when a document does not exist at the source.
	ErrNotFound = errors.New("source document not found")
	// ErrSourceUnavailable is returned when the source cannot be reached.
	ErrSourceUnavailable = errors.New("source unavailable")
)

// Fetcher returns the raw bytes of a named document.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, name string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, name string) ([]byte, error) {
	return f(ctx, name)
}

// Names lists the documents that make up one catalog load.
type Names struct {
	Descriptions string
	Provisioning string
	Permissions  string
}

// All returns the document names in fetch order.
func (n Names) All() []string {
	return []string{n.Descriptions, n.Provisioning, n.Permissions}
}

// NamesFromSettings extracts the document names from settings.
func NamesFromSettings(s config.SourceSettings) Names {
	return Names{
		Descriptions: s.Descriptions,
		Provisioning: s.Provisioning,
		Permissions:  s.Permissions,
	}
}

// Closer releases resources held by a fetcher chain.
type Closer func() error

// FromSettings builds the fetcher chain described by settings. The returned
// closer must be called on shutdown.
func FromSettings(s config.Settings, log logger.LogManager) (Fetcher, Closer, error) {
	var fetcher Fetcher
	switch s.Sources.Kind {
	case "file":
		fetcher = NewFileFetcher(s.Sources.Dir)
	case "http":
		client := corehttp.NewClient(append(clientHooks(log),
			corehttp.WithLogger(log),
			corehttp.WithTimeout(s.HTTP.Timeout),
			corehttp.WithRetry(s.HTTP.RetryMax, s.HTTP.RetryDelay),
			corehttp.WithUserAgent(s.Service.Name+"/"+s.Service.Version),
		)...)
		fetcher = NewHTTPFetcher(s.Sources.BaseURL, client, BreakerSettingsFrom(s.Breaker), log)
	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", s.Sources.Kind)
	}

	if !s.Cache.Enabled {
		return fetcher, func() error { return nil }, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     s.Cache.Addr,
		Password: s.Cache.Password,
		DB:       s.Cache.DB,
	})
	cached := NewCachedFetcher(fetcher, rdb, CacheOptions{TTL: s.Cache.TTL, Prefix: s.Cache.Prefix}, log)
	return cached, rdb.Close, nil
}

// BreakerSettingsFrom maps configuration onto breaker settings.
func BreakerSettingsFrom(b config.BreakerSettings) BreakerSettings {
	return BreakerSettings{
		MaxRequests:      b.MaxRequests,
		Interval:         b.Interval,
		Timeout:          b.Timeout,
		FailureThreshold: b.FailureThreshold,
	}
}

// BreakerSettings configures the circuit breaker guarding HTTP sources.
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}
