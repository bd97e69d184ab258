package server

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/milan604/permcatalog/pkg/logger"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// maxIncomingIDLen bounds client-supplied ids so they cannot flood the logs.
const maxIncomingIDLen = 128

// RequestIDMiddleware reuses a sane incoming X-Request-ID or mints a UUID, and
// exposes it on the gin context, the request context and the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" || len(reqID) > maxIncomingIDLen {
			reqID = uuid.NewString()
		}
		c.Set(string(logger.RequestIDKey), reqID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.RequestIDKey, reqID))
		c.Writer.Header().Set(HeaderRequestID, reqID)
		c.Next()
	}
}
