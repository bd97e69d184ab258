package catalogapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/milan604/permcatalog/pkg/apperr"
	"github.com/milan604/permcatalog/pkg/response"
	"github.com/milan604/permcatalog/pkg/version"
)

// Healthz reports that the process is up.
func (h *Handler) Healthz(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// Readyz reports 200 with the store status once a catalog is published,
// and 503 before that.
func (h *Handler) Readyz(c *gin.Context) {
	st := h.store.Status()
	if !st.Ready {
		ae := apperr.New(apperr.ErrorCodeCatalogNotReady)
		if st.LastError != "" {
			ae.AddSuggestion("catalog", st.LastError)
		}
		response.JSONError(c, ae)
		return
	}
	response.JSONSuccess(c, http.StatusOK, st, nil)
}

// Version reports build metadata.
func (h *Handler) Version(c *gin.Context) {
	response.Success(c, version.Info())
}
