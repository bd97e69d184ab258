package catalogapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/milan604/permcatalog/pkg/apperr"
	"github.com/milan604/permcatalog/pkg/auth"
	"github.com/milan604/permcatalog/pkg/engine"
	"github.com/milan604/permcatalog/pkg/observability"
	"github.com/milan604/permcatalog/pkg/permissions"
	"github.com/milan604/permcatalog/pkg/response"
	"github.com/milan604/permcatalog/pkg/validator"
)

// query runs the engine for one request and records its latency.
func (h *Handler) query(c *gin.Context, view string, e *engine.Engine, f engine.FilterState, order engine.SortOrder, page int) engine.Result {
	ctx, span := observability.Tracer("permcatalog/catalogapi").Start(c.Request.Context(), "engine.query")
	defer span.End()

	start := time.Now()
	res := e.View(e.Restore(f, order, page))
	if h.metrics != nil {
		h.metrics.RecordQuery(ctx, view, time.Since(start))
	}
	observability.AddSpanAttributes(ctx,
		observability.AttrFilterSearch.String(f.Search),
		observability.AttrFilterTypes.StringSlice(f.Types.Strings()),
		observability.AttrSortOrder.String(order.String()),
		observability.AttrPage.Int(page),
		observability.AttrVisibleCount.Int(res.Summary.VisibleCount),
	)
	return res
}

func resultMeta(res engine.Result) map[string]any {
	return map[string]any{
		"summary":       res.Summary,
		"pagination":    res.Pagination,
		"activeFilters": res.ActiveFilters,
		"filter":        res.Filter,
		"sort":          res.Sort,
	}
}

// ListPermissions serves the filtered, sorted and paginated catalog.
func (h *Handler) ListPermissions(c *gin.Context) {
	f, order, page, appErr := h.bindList(c)
	if appErr != nil {
		response.JSONError(c, appErr)
		return
	}
	_, e, err := h.current(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	res := h.query(c, "list", e, f, order, page)
	response.Page(c, res.VisiblePage, resultMeta(res))
}

// SearchPermissions applies the search predicate alone and returns every match.
func (h *Handler) SearchPermissions(c *gin.Context) {
	q, appErr := validator.BindQuery[searchQuery](h.vi, c)
	if appErr != nil {
		response.JSONError(c, appErr)
		return
	}
	cat, _, err := h.current(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	start := time.Now()
	matches := engine.Search(cat.All(), q.Q)
	if h.metrics != nil {
		h.metrics.RecordQuery(c.Request.Context(), "search", time.Since(start))
	}
	response.Page(c, matches, map[string]any{
		"summary": engine.Summary{VisibleCount: len(matches), TotalCount: cat.Count()},
	})
}

// GetPermission returns one record by ID, or by value when no ID matches.
func (h *Handler) GetPermission(c *gin.Context) {
	uri, appErr := validator.BindURI[idURI](h.vi, c)
	if appErr != nil {
		response.JSONError(c, appErr)
		return
	}
	cat, _, err := h.current(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	rec, ok := cat.Lookup(uri.ID)
	if !ok {
		response.JSONError(c, apperr.Newf(apperr.ErrorCodeNotFound, "permission %q not found", uri.ID))
		return
	}
	response.JSONSuccess(c, http.StatusOK, rec, map[string]any{
		"canonicalUrl": permissions.CanonicalURL(h.baseURL, rec),
	})
}

// ListServices returns the distinct service prefixes for the service facet.
func (h *Handler) ListServices(c *gin.Context) {
	cat, _, err := h.current(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, cat.Services())
}

// ReloadCatalog refetches the sources and reports the new store status.
// Routes mount it behind reloadGuards.
func (h *Handler) ReloadCatalog(c *gin.Context) {
	if cl, ok := auth.GetClaims(c); ok {
		h.log.InfoFCtx(c.Request.Context(), "catalog reload requested by %q", cl.Subject())
	}
	if err := h.reload(c); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, h.store.Status())
}

func (h *Handler) reload(c *gin.Context) error {
	if h.reloader == nil {
		return apperr.Newf(apperr.ErrorCodeNotFound, "catalog reload is not enabled")
	}
	_, err := h.reloader.Reload(c.Request.Context())
	if err != nil {
		h.log.ErrorFCtx(c.Request.Context(), "catalog reload failed: %v", err)
		return err
	}
	h.log.InfoFCtx(c.Request.Context(), "catalog reloaded, %d permissions", h.store.Status().Count)
	return nil
}
