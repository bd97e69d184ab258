package catalogapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/milan604/permcatalog/pkg/apperr"
	"github.com/milan604/permcatalog/pkg/auth"
	"github.com/milan604/permcatalog/pkg/render"
	"github.com/milan604/permcatalog/pkg/response"
)

// RegisterRoutes mounts every route on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	RegisterErrorMappings()

	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/version", h.Version)

	v1 := r.Group("/api/v1")
	v1.GET("/permissions", h.ListPermissions)
	v1.GET("/permissions/search", h.SearchPermissions)
	v1.GET("/permissions/:id", h.GetPermission)
	v1.GET("/services", h.ListServices)
	v1.POST("/catalog/reload", append(h.reloadGuards(), h.ReloadCatalog)...)

	r.GET(render.AdvancedPath, h.AdvancedPage)
	r.GET(render.SearchPath, h.SearchPage)
	r.POST(render.RetryPath, h.Retry)
	r.GET("/api/:api/permission/:slug", h.DetailPage)
	r.StaticFS("/static", http.FS(render.StaticFS()))
}

// reloadGuards keeps the reload API off until both a reloader and a signing
// secret are configured.
func (h *Handler) reloadGuards() []gin.HandlerFunc {
	if h.reloader == nil || !h.reloadAuth.Enabled() {
		return []gin.HandlerFunc{reloadDisabled}
	}
	guards := []gin.HandlerFunc{auth.JWTAuth(h.reloadAuth)}
	if len(h.reloadScopes) > 0 {
		guards = append(guards, auth.RequireScopes(h.reloadScopes...))
	}
	return guards
}

func reloadDisabled(c *gin.Context) {
	response.JSONError(c, apperr.Newf(apperr.ErrorCodeNotFound, "catalog reload is not enabled"))
	c.Abort()
}
