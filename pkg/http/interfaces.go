package http

import "context"

// DocumentGetter fetches a whole response body. Source fetchers depend on
// this rather than on *Client so tests can swap in a stub.
type DocumentGetter interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

var _ DocumentGetter = (*Client)(nil)
