// Package catalogapi serves the permission catalog over HTTP: a JSON API,
// server-rendered pages and health endpoints.
package catalogapi

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/milan604/permcatalog/pkg/auth"
	"github.com/milan604/permcatalog/pkg/engine"
	"github.com/milan604/permcatalog/pkg/logger"
	"github.com/milan604/permcatalog/pkg/observability"
	"github.com/milan604/permcatalog/pkg/permissions"
	"github.com/milan604/permcatalog/pkg/validator"
)

// Reloader refetches the source documents and publishes a new catalog.
type Reloader interface {
	Reload(ctx context.Context) (*permissions.Catalog, error)
}

// Handler holds the dependencies of every route.
type Handler struct {
	store        *permissions.Store
	reloader     Reloader
	reloadAuth   auth.JWTConfig
	reloadScopes []string
	metrics      *observability.CatalogMetrics
	log          logger.LogManager
	vi           *validator.Validator
	baseURL      string
	pageSize     int

	mu      sync.Mutex
	engine  *engine.Engine
	version uint64
}

// Option configures a Handler.
type Option func(*Handler)

// WithReloader enables the retry page, and the reload API once WithReloadAuth
// supplies a signing secret.
func WithReloader(r Reloader) Option {
	return func(h *Handler) { h.reloader = r }
}

// WithReloadAuth requires a bearer token signed with cfg.Secret, carrying
// every one of scopes, on the reload API. Blank scopes are ignored.
func WithReloadAuth(cfg auth.JWTConfig, scopes ...string) Option {
	return func(h *Handler) {
		h.reloadAuth = cfg
		h.reloadScopes = h.reloadScopes[:0]
		for _, s := range scopes {
			if s != "" {
				h.reloadScopes = append(h.reloadScopes, s)
			}
		}
	}
}

// WithMetrics records query latency and catalog snapshots.
func WithMetrics(m *observability.CatalogMetrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLogger sets the logger used outside of request scope.
func WithLogger(l logger.LogManager) Option {
	return func(h *Handler) { h.log = l }
}

// WithBaseURL sets the prefix of canonical permission links.
func WithBaseURL(u string) Option {
	return func(h *Handler) { h.baseURL = u }
}

// WithPageSize overrides the number of records per page.
func WithPageSize(n int) Option {
	return func(h *Handler) { h.pageSize = n }
}

// New creates a Handler reading catalogs from store.
func New(store *permissions.Store, opts ...Option) *Handler {
	h := &Handler{
		store:    store,
		log:      logger.NewNop(),
		pageSize: engine.ItemsPerPage,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.vi = newQueryValidator()
	return h
}

// current returns the published catalog and an engine over it. The engine is
// rebuilt only when the catalog version changes.
func (h *Handler) current(c *gin.Context) (*permissions.Catalog, *engine.Engine, error) {
	cat, version, err := h.store.Current()
	if err != nil {
		return nil, nil, err
	}
	c.Set(string(logger.CatalogVersionKey), version)
	observability.AddSpanAttributes(c.Request.Context(), observability.AttrCatalogVersion.Int64(int64(version)))

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.engine == nil || h.version != version {
		h.engine = engine.New(cat.All(), engine.WithPageSize(h.pageSize))
		h.version = version
	}
	return cat, h.engine, nil
}
