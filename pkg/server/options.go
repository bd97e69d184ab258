package server

import (
	"time"

	"github.com/milan604/permcatalog/pkg/config"
	"github.com/milan604/permcatalog/pkg/logger"
	middleware "github.com/milan604/permcatalog/pkg/server/middleware"
)

// StartOption configures Start behavior (functional options)
type StartOption func(*startOptions)

type startOptions struct {
	settings *config.ServiceSettings
	logger   logger.LogManager

	// server-level: graceful shutdown timeout
	shutdownTimeout time.Duration

	// TLS
	tlsCertFile string
	tlsKeyFile  string
	addr        string
	banner      bool
}

// StartWithSettings takes the listen address and shutdown timeout from settings.
func StartWithSettings(s config.ServiceSettings) StartOption {
	return func(o *startOptions) {
		o.settings = &s
		if s.ShutdownTimeout > 0 {
			o.shutdownTimeout = s.ShutdownTimeout
		}
	}
}

// StartWithLogger passes a logger
func StartWithLogger(l logger.LogManager) StartOption {
	return func(o *startOptions) { o.logger = l }
}

// StartWithShutdownTimeout custom shutdown timeout
func StartWithShutdownTimeout(d time.Duration) StartOption {
	return func(o *startOptions) { o.shutdownTimeout = d }
}

// StartWithAddr override listen address (host:port)
func StartWithAddr(addr string) StartOption {
	return func(o *startOptions) { o.addr = addr }
}

// StartWithTLS enables TLS with cert/key files
func StartWithTLS(certFile, keyFile string) StartOption {
	return func(o *startOptions) {
		o.tlsCertFile = certFile
		o.tlsKeyFile = keyFile
	}
}

// StartWithBanner prints the startup banner to stdout.
func StartWithBanner(enabled bool) StartOption {
	return func(o *startOptions) { o.banner = enabled }
}

// EngineOption configures NewEngine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	logger          logger.LogManager
	recovery        bool
	corsConfig      middleware.CorsConfig
	prometheus      *middleware.PrometheusCollector
	rateLimitConfig *middleware.RateLimitConfig
	tracingService  string
}

// Enables rate limiting with custom parameters
func WithRateLimit(cfg *middleware.RateLimitConfig) EngineOption {
	return func(e *engineOptions) {
		e.rateLimitConfig = cfg
	}
}

// Engine option helpers
func WithLogger(l logger.LogManager) EngineOption {
	return func(e *engineOptions) { e.logger = l }
}

func WithRecovery(enabled bool) EngineOption {
	return func(e *engineOptions) { e.recovery = enabled }
}

func WithCors(c middleware.CorsConfig) EngineOption {
	return func(e *engineOptions) { e.corsConfig = c }
}

// WithPrometheus collects HTTP metrics into pc and exposes its registry.
func WithPrometheus(pc *middleware.PrometheusCollector) EngineOption {
	return func(e *engineOptions) { e.prometheus = pc }
}

// WithTracing adds otelgin spans named after serviceName.
func WithTracing(serviceName string) EngineOption {
	return func(e *engineOptions) { e.tracingService = serviceName }
}

