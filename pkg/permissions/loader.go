package permissions

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/milan604/permcatalog/pkg/logger"
	"github.com/milan604/permcatalog/pkg/observability"
	"github.com/milan604/permcatalog/pkg/source"
)

// Loader builds a fresh catalog from an external source.
type Loader func(ctx context.Context) (*Catalog, error)

// LoaderFromSources creates a loader that fetches the three documents
// concurrently, decodes them and merges the result. The descriptions document
// is required; provisioning and permissions may be absent.
func LoaderFromSources(fetcher source.Fetcher, names source.Names, log logger.LogManager) Loader {
	if log == nil {
		log = logger.NewNop()
	}
	tracer := observability.Tracer("permcatalog/permissions")
	return func(ctx context.Context) (_ *Catalog, err error) {
		ctx, span := tracer.Start(ctx, "catalog.load")
		defer func() {
			observability.RecordSpanError(ctx, err)
			span.End()
		}()

		if fetcher == nil {
			return nil, fmt.Errorf("source fetcher not configured")
		}

		var descRaw, provRaw, permRaw []byte
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(3)
		g.Go(func() error {
			data, err := fetcher.Fetch(gctx, names.Descriptions)
			if err != nil {
				return fmt.Errorf("fetch descriptions: %w", err)
			}
			descRaw = data
			return nil
		})
		g.Go(func() error {
			data, err := fetchOptional(gctx, fetcher, names.Provisioning)
			if err != nil {
				return fmt.Errorf("fetch provisioning info: %w", err)
			}
			provRaw = data
			return nil
		})
		g.Go(func() error {
			data, err := fetchOptional(gctx, fetcher, names.Permissions)
			if err != nil {
				return fmt.Errorf("fetch permissions: %w", err)
			}
			permRaw = data
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		descriptions, err := DecodeDescriptions(descRaw)
		if err != nil {
			return nil, err
		}
		provisioning, err := DecodeProvisioning(provRaw)
		if err != nil {
			return nil, err
		}
		rawPerms, err := ValidatePermissions(permRaw)
		if err != nil {
			return nil, err
		}

		catalog := NewCatalog(Merge(descriptions, provisioning)).WithRawPermissions(rawPerms)
		observability.AddSpanAttributes(ctx, observability.AttrCatalogSize.Int(catalog.Count()))
		log.InfoFCtx(ctx, "loaded %d permissions (%d with provisioning info, %d provisioning entries)",
			catalog.Count(), catalog.Provisioned(), len(provisioning))
		return catalog, nil
	}
}

func fetchOptional(ctx context.Context, fetcher source.Fetcher, name string) ([]byte, error) {
	if name == "" {
		return nil, nil
	}
	data, err := fetcher.Fetch(ctx, name)
	if errors.Is(err, source.ErrNotFound) {
		return nil, nil
	}
	return data, err
}
