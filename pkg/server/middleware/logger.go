package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/milan604/permcatalog/pkg/logger"
)

const loggerKey = "permcatalog_logger"

// AppLoggerMiddleware injects a request-scoped logger into gin.Context
func AppLoggerMiddleware(l logger.LogManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLogger := l.With("log_type", "application", "route", c.FullPath())
		if rid := c.GetString(string(logger.RequestIDKey)); rid != "" {
			reqLogger = reqLogger.With("request_id", rid)
		}
		c.Set(loggerKey, reqLogger)
		c.Next()
	}
}

// GetLogger retrieves the request-scoped logger, or a no-op logger when the
// middleware is not installed.
func GetLogger(c *gin.Context) logger.LogManager {
	if val, ok := c.Get(loggerKey); ok {
		if lm, yes := val.(logger.LogManager); yes {
			return lm
		}
	}
	return logger.NewNop()
}

// AccessLoggerMiddleware logs each request after completion
func AccessLoggerMiddleware(l logger.LogManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		fields := []any{
			"log_type", "access",
			"ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"size", c.Writer.Size(),
		}
		if rid := c.GetString(string(logger.RequestIDKey)); rid != "" {
			fields = append(fields, "request_id", rid)
		}
		if v, ok := c.Get(string(logger.CatalogVersionKey)); ok {
			fields = append(fields, "catalog_version", v)
		}

		entry := l.With(fields...)
		switch {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}
