package permissions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/milan604/permcatalog/pkg/observability"
)

var (
	// ErrLoaderNotConfigured is returned when a loader is not configured.
	ErrLoaderNotConfigured = errors.New("permission loader not configured")
	// ErrNotReady is returned while no catalog has been published yet.
	ErrNotReady = errors.New("permission catalog not ready")
)

// Status is a point-in-time view of the store for health reporting.
type Status struct {
	Ready       bool      `json:"ready"`
	Version     uint64    `json:"version"`
	Count       int       `json:"count"`
	Provisioned int       `json:"provisioned"`
	LoadedAt    time.Time `json:"loadedAt,omitzero"`
	LastError   string    `json:"lastError,omitempty"`
}

// Snapshot is the part of the status reported as metrics.
func (st Status) Snapshot() observability.CatalogSnapshot {
	return observability.CatalogSnapshot{
		Ready:       st.Ready,
		Version:     st.Version,
		Count:       st.Count,
		Provisioned: st.Provisioned,
	}
}

// Store holds the current catalog snapshot with thread-safe access.
// Readers never see a partially built catalog.
type Store struct {
	mu       sync.RWMutex
	catalog  *Catalog
	version  uint64
	loadedAt time.Time
	lastErr  error
	loader   Loader

	ready     chan struct{}
	readyOnce sync.Once
	// serializes Load so concurrent reloads do not race on publication order
	loadMu sync.Mutex
}

// NewStore creates a new permission store with an optional loader.
func NewStore(loader Loader) *Store {
	return &Store{
		loader: loader,
		ready:  make(chan struct{}),
	}
}

// SetLoader updates the loader function for the store.
func (s *Store) SetLoader(loader Loader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loader = loader
}

// Load runs the configured loader and publishes its catalog. On failure the
// previous catalog, if any, keeps serving and the error is recorded.
func (s *Store) Load(ctx context.Context) (*Catalog, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.RLock()
	loader := s.loader
	s.mu.RUnlock()

	if loader == nil {
		return nil, ErrLoaderNotConfigured
	}

	catalog, err := loader(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return nil, err
	}

	s.Replace(catalog)
	return catalog, nil
}

// Replace publishes catalog as the current snapshot and marks the store ready.
func (s *Store) Replace(catalog *Catalog) {
	if catalog == nil {
		catalog = NewCatalog(nil)
	}

	s.mu.Lock()
	s.catalog = catalog
	s.version++
	s.loadedAt = time.Now()
	s.lastErr = nil
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
}

// Current returns the published catalog and its version, or ErrNotReady.
func (s *Store) Current() (*Catalog, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil {
		if s.lastErr != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrNotReady, s.lastErr)
		}
		return nil, 0, ErrNotReady
	}
	return s.catalog, s.version, nil
}

// Ready is closed once the first catalog has been published.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Wait blocks until the store is ready or ctx is done.
func (s *Store) Wait(ctx context.Context) (*Catalog, error) {
	select {
	case <-s.ready:
		catalog, _, err := s.Current()
		return catalog, err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrNotReady, ctx.Err())
	}
}

// Status reports readiness, version and the last load error.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Ready:    s.catalog != nil,
		Version:  s.version,
		LoadedAt: s.loadedAt,
	}
	if s.catalog != nil {
		st.Count = s.catalog.Count()
		st.Provisioned = s.catalog.Provisioned()
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
