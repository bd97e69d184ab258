package observability

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// GinMiddleware traces every request except those whose path starts with one
// of skipPrefixes. Probes and static assets would otherwise drown the traces.
func GinMiddleware(serviceName string, skipPrefixes ...string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName,
		otelgin.WithFilter(func(r *http.Request) bool {
			return !skipPath(r.URL.Path, skipPrefixes)
		}),
	)
}

func skipPath(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
