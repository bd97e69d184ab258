package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/milan604/permcatalog/pkg/logger"
	"github.com/milan604/permcatalog/pkg/observability"
	middleware "github.com/milan604/permcatalog/pkg/server/middleware"
	"github.com/milan604/permcatalog/pkg/version"
)

// NewEngine creates a Gin engine with recommended middleware ordering and modular options.
func NewEngine(opts ...EngineOption) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	var opt engineOptions
	for _, o := range opts {
		o(&opt)
	}

	logMgr := opt.logger
	if logMgr == nil {
		logMgr = logger.MustNewDefaultLogger()
	}

	// 1. Recovery first so panics anywhere below become a 500 envelope
	if opt.recovery {
		engine.Use(middleware.RecoveryMiddleware(logMgr))
	}

	// 2. Request ID
	engine.Use(middleware.RequestIDMiddleware())

	// 3. Tracing (optional)
	if opt.tracingService != "" {
		engine.Use(observability.GinMiddleware(opt.tracingService, "/healthz", "/readyz", "/metrics", "/static/"))
	}

	// 4. Access Logger
	engine.Use(middleware.AccessLoggerMiddleware(logMgr))

	// 5. App Logger Injector
	engine.Use(middleware.AppLoggerMiddleware(logMgr))

	// 6. CORS (optional)
	if opt.corsConfig.Enabled {
		engine.Use(middleware.CORSMiddleware(opt.corsConfig))
	}

	// 7. Rate Limiting (optional)
	if opt.rateLimitConfig != nil && opt.rateLimitConfig.Enabled {
		engine.Use(opt.rateLimitConfig.Middleware())
	}

	// 8. Prometheus (optional)
	if opt.prometheus != nil {
		engine.Use(opt.prometheus.PrometheusMiddleware())
		opt.prometheus.RegisterMetricsEndpoint(engine)
	}

	// 9. Error Handler
	engine.Use(middleware.ErrorHandlerMiddleware())

	return engine
}

func resolveAddress(so *startOptions) string {
	addr := so.addr
	if addr == "" && so.settings != nil {
		addr = so.settings.Addr()
	}
	if addr == "" {
		addr = ":8080"
	}
	return addr
}

func printBanner(addr string, so *startOptions) {
	name := "permcatalog"
	if so.settings != nil && so.settings.Name != "" {
		name = so.settings.Name
	}
	info := version.Info()
	fmt.Printf("\n==============================\n"+
		" Service: %s\n"+
		" Version: %s (%s)\n"+
		"------------------------------\n"+
		" Listening on: %s\n"+
		"==============================\n",
		name, info.Version, info.Go, addr)
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully. It returns the listener error, if any, or the shutdown error.
func Start(ctx context.Context, engine http.Handler, opts ...StartOption) error {
	so := &startOptions{shutdownTimeout: 15 * time.Second}
	for _, o := range opts {
		o(so)
	}
	log := so.logger
	if log == nil {
		log = logger.NewNop()
	}

	addr := resolveAddress(so)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.ErrorF("cannot listen on %s: %v", addr, err)
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if so.banner {
		printBanner(ln.Addr().String(), so)
	}

	serveErr := make(chan error, 1)
	go func() {
		var err error
		if so.tlsCertFile != "" && so.tlsKeyFile != "" {
			if err = checkTLSFiles(so); err == nil {
				err = srv.ServeTLS(ln, so.tlsCertFile, so.tlsKeyFile)
			}
		} else {
			err = srv.Serve(ln)
		}
		serveErr <- err
	}()
	log.InfoF("server listening on %s", ln.Addr())

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		log.ErrorF("server error: %v", err)
		return err
	case <-ctx.Done():
	}

	log.InfoF("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), so.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorF("server shutdown error: %v", err)
		return err
	}
	log.InfoF("server stopped gracefully")
	return nil
}

func checkTLSFiles(so *startOptions) error {
	if _, err := os.Stat(so.tlsCertFile); err != nil {
		return fmt.Errorf("TLS cert file: %w", err)
	}
	if _, err := os.Stat(so.tlsKeyFile); err != nil {
		return fmt.Errorf("TLS key file: %w", err)
	}
	return nil
}
