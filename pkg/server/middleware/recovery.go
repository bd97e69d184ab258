package server

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/milan604/permcatalog/pkg/apperr"
	"github.com/milan604/permcatalog/pkg/logger"
	"github.com/milan604/permcatalog/pkg/response"
)

// RecoveryMiddleware turns a handler panic into a 500 envelope and logs the stack.
func RecoveryMiddleware(l logger.LogManager) gin.HandlerFunc {
	if l == nil {
		l = logger.NewNop()
	}
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				l.With("log_type", "panic", "path", c.Request.URL.Path).
					ErrorF("panic recovered: %v\n%s", r, debug.Stack())
				response.JSONError(c, apperr.New(apperr.ErrorCodeInternal))
				c.Abort()
			}
		}()
		c.Next()
	}
}
