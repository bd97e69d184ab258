package server

import (
	"github.com/gin-gonic/gin"

	"github.com/milan604/permcatalog/pkg/response"
)

// ErrorHandlerMiddleware turns the last error a handler attached with c.Error
// into the standard error envelope, unless the handler already responded.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		last := c.Errors.Last()
		if last == nil || last.Err == nil {
			return
		}
		response.HandleError(c, last.Err)
		c.Abort()
	}
}
