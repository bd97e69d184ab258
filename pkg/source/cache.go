package source

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/milan604/permcatalog/pkg/logger"
)

// CacheOptions tunes CachedFetcher.
type CacheOptions struct {
	TTL    time.Duration
	Prefix string
}

// CachedFetcher is a read-through Redis cache in front of another fetcher.
// Redis failures are logged and fall through; they never fail a fetch.
type CachedFetcher struct {
	next Fetcher
	rdb  redis.UniversalClient
	opts CacheOptions
	log  logger.LogManager
}

func NewCachedFetcher(next Fetcher, rdb redis.UniversalClient, opts CacheOptions, log logger.LogManager) *CachedFetcher {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedFetcher{next: next, rdb: rdb, opts: opts, log: log}
}

func (c *CachedFetcher) key(name string) string {
	return c.opts.Prefix + name
}

func (c *CachedFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	cached, err := c.rdb.Get(ctx, c.key(name)).Bytes()
	switch {
	case err == nil:
		c.log.DebugFCtx(ctx, "source cache hit for %s", name)
		return cached, nil
	case errors.Is(err, redis.Nil):
	default:
		c.log.WarnFCtx(ctx, "source cache read failed for %s: %v", name, err)
	}

	data, err := c.next.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := c.rdb.Set(ctx, c.key(name), data, c.opts.TTL).Err(); err != nil {
		c.log.WarnFCtx(ctx, "source cache write failed for %s: %v", name, err)
	}
	return data, nil
}

// Invalidate drops the cached copies of names so the next fetch reaches the source.
func (c *CachedFetcher) Invalidate(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, 0, len(names))
	for _, n := range names {
		keys = append(keys, c.key(n))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
