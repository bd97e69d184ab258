package permissions

import (
	"context"
	"time"

	"github.com/milan604/permcatalog/pkg/config"
	"github.com/milan604/permcatalog/pkg/logger"
	"github.com/milan604/permcatalog/pkg/source"
)

// invalidator is implemented by caching fetchers.
type invalidator interface {
	Invalidate(ctx context.Context, names ...string) error
}

// Reloader re-runs the store's loader on demand, bypassing any source cache.
type Reloader struct {
	store   *Store
	fetcher source.Fetcher
	names   source.Names
	timeout time.Duration
	log     logger.LogManager
	closer  source.Closer
	hooks   []func(ctx context.Context, err error)
}

// BootstrapOption configures Bootstrap.
type BootstrapOption func(*Reloader)

// WithReloadHook calls fn after every load attempt, including the initial
// load and reloads triggered by file changes.
func WithReloadHook(fn func(ctx context.Context, err error)) BootstrapOption {
	return func(r *Reloader) { r.hooks = append(r.hooks, fn) }
}

// Reload drops cached documents and loads a new catalog.
func (r *Reloader) Reload(ctx context.Context) (*Catalog, error) {
	return r.load(ctx, true)
}

func (r *Reloader) load(ctx context.Context, fresh bool) (*Catalog, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if inv, ok := r.fetcher.(invalidator); ok && fresh {
		if err := inv.Invalidate(ctx, r.names.All()...); err != nil {
			r.log.WarnFCtx(ctx, "failed to invalidate source cache: %v", err)
		}
	}
	catalog, err := r.store.Load(ctx)
	for _, hook := range r.hooks {
		hook(ctx, err)
	}
	return catalog, err
}

// Close releases the source chain.
func (r *Reloader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

// Bootstrap wires the source chain described by settings into store and
// performs the initial load. A failed initial load is returned but not
// retried; the Reloader stays usable so a manual reload or a file change can
// recover. When file watching is enabled, the watcher runs until ctx is done.
func Bootstrap(ctx context.Context, settings config.Settings, log logger.LogManager, store *Store, opts ...BootstrapOption) (*Reloader, error) {
	if log == nil {
		log = logger.NewNop()
	}

	fetcher, closer, err := source.FromSettings(settings, log)
	if err != nil {
		return nil, err
	}

	names := source.NamesFromSettings(settings.Sources)
	store.SetLoader(LoaderFromSources(fetcher, names, log))

	r := &Reloader{
		store:   store,
		fetcher: fetcher,
		names:   names,
		timeout: settings.Sources.LoadTimeout,
		log:     log,
		closer:  closer,
	}
	for _, opt := range opts {
		opt(r)
	}

	if settings.Sources.Kind == "file" && settings.Sources.Watch {
		ff := source.NewFileFetcher(settings.Sources.Dir)
		go func() {
			err := ff.Watch(ctx, names.All(), source.DefaultDebounce, log, func() {
				if _, err := r.Reload(ctx); err != nil {
					log.ErrorF("reload after source change failed: %v", err)
					return
				}
				log.InfoF("catalog reloaded after source change")
			})
			if err != nil {
				log.ErrorF("source watcher stopped: %v", err)
			}
		}()
	}

	if _, err := r.load(ctx, false); err != nil {
		log.ErrorF("initial catalog load failed: %v", err)
		return r, err
	}
	return r, nil
}
