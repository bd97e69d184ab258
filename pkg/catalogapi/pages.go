package catalogapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gomponents "maragu.dev/gomponents"

	"github.com/milan604/permcatalog/pkg/apperr"
	"github.com/milan604/permcatalog/pkg/engine"
	"github.com/milan604/permcatalog/pkg/permissions"
	"github.com/milan604/permcatalog/pkg/render"
	middleware "github.com/milan604/permcatalog/pkg/server/middleware"
	"github.com/milan604/permcatalog/pkg/validator"
)

func (h *Handler) renderHTML(c *gin.Context, status int, node gomponents.Node) {
	if err := render.Write(c.Writer, status, node); err != nil {
		middleware.GetLogger(c).WarnFCtx(c.Request.Context(), "render page: %v", err)
	}
}

func (h *Handler) renderError(c *gin.Context, err error) {
	status, title, message, retry := pageError(err)
	h.renderHTML(c, status, render.ErrorPage(title, message, retry))
}

// AdvancedPage renders the filterable catalog.
func (h *Handler) AdvancedPage(c *gin.Context) {
	f, order, page, appErr := h.bindList(c)
	if appErr != nil {
		h.renderError(c, appErr)
		return
	}
	cat, e, err := h.current(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	res := h.query(c, "advanced", e, f, order, page)
	h.renderHTML(c, http.StatusOK, render.AdvancedPage(render.Advanced{
		Result:   res,
		Services: cat.Services(),
		BaseURL:  h.baseURL,
	}))
}

// SearchPage renders the basic search. A permission parameter selects the
// record with that value, opens its details and seeds the search box.
func (h *Handler) SearchPage(c *gin.Context) {
	q, appErr := validator.BindQuery[searchQuery](h.vi, c)
	if appErr != nil {
		h.renderError(c, appErr)
		return
	}
	cat, _, err := h.current(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	view := render.Search{Query: q.Q, Total: cat.Count(), BaseURL: h.baseURL}
	if q.Permission != "" {
		rec, ok := cat.ByValue(q.Permission)
		if !ok {
			rec, ok = cat.ByID(q.Permission)
		}
		if ok {
			view.Selected = &rec
			view.Query = rec.Value
		}
	}

	start := time.Now()
	if view.Query == "" {
		view.Matches = cat.All()
	} else {
		view.Matches = engine.Search(cat.All(), view.Query)
	}
	if h.metrics != nil {
		h.metrics.RecordQuery(c.Request.Context(), "search", time.Since(start))
	}
	h.renderHTML(c, http.StatusOK, render.SearchPage(view))
}

// DetailPage renders the canonical page of one permission.
func (h *Handler) DetailPage(c *gin.Context) {
	uri, appErr := validator.BindURI[slugURI](h.vi, c)
	if appErr != nil {
		h.renderError(c, appErr)
		return
	}
	cat, _, err := h.current(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	rec, ok := cat.BySlug(uri.API, uri.Slug)
	if !ok {
		h.renderError(c, apperr.Newf(apperr.ErrorCodeNotFound, "No permission %s in %s.", uri.Slug, uri.API))
		return
	}
	h.renderHTML(c, http.StatusOK, render.DetailPage(render.Detail{Record: rec, BaseURL: h.baseURL}))
}

// Retry reloads the catalog after a failed load and returns to the catalog.
// Once a catalog is published it only redirects.
func (h *Handler) Retry(c *gin.Context) {
	if _, _, err := h.store.Current(); !errors.Is(err, permissions.ErrNotReady) {
		c.Redirect(http.StatusSeeOther, render.AdvancedPath)
		return
	}
	if err := h.reload(c); err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, render.AdvancedPath)
}
