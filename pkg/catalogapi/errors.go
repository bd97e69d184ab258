package catalogapi

import (
	"errors"
	"net/http"
	"sync"

	"github.com/milan604/permcatalog/pkg/apperr"
	"github.com/milan604/permcatalog/pkg/permissions"
	"github.com/milan604/permcatalog/pkg/source"
)

var registerOnce sync.Once

// RegisterErrorMappings teaches apperr the catalog and source sentinels.
// It is safe to call more than once.
func RegisterErrorMappings() {
	registerOnce.Do(func() {
		apperr.RegisterMapping(permissions.ErrNotReady, apperr.ErrorCodeCatalogNotReady)
		apperr.RegisterMapping(permissions.ErrLoaderNotConfigured, apperr.ErrorCodeCatalogNotReady)
		apperr.RegisterMapping(source.ErrSourceUnavailable, apperr.ErrorCodeSourceUnavailable)
		apperr.RegisterMapping(permissions.ErrMalformedSource, apperr.ErrorCodeSourceUnavailable)
		apperr.RegisterMapping(source.ErrNotFound, apperr.ErrorCodeSourceUnavailable)
	})
}

// pageError picks the status, title and message of an HTML error page.
func pageError(err error) (status int, title, message string, retry bool) {
	ae := apperr.FromError(err)
	switch {
	case errors.Is(err, permissions.ErrNotReady), ae.Code == apperr.ErrorCodeSourceUnavailable.Code():
		return ae.HTTPStatus, "Catalog unavailable", apperr.ErrorCodeSourceUnavailable.Message(), true
	case apperr.HasCode(err, apperr.ErrorCodeNotFound):
		return http.StatusNotFound, "Not Found", ae.Message, false
	case ae.HTTPStatus == http.StatusUnprocessableEntity:
		return ae.HTTPStatus, "Invalid Request", ae.Message, false
	default:
		return http.StatusInternalServerError, "Unexpected Error", "An unexpected error occurred while loading this page.", false
	}
}
