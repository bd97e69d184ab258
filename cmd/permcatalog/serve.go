package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/milan604/permcatalog/pkg/auth"
	"github.com/milan604/permcatalog/pkg/catalogapi"
	"github.com/milan604/permcatalog/pkg/observability"
	"github.com/milan604/permcatalog/pkg/permissions"
	"github.com/milan604/permcatalog/pkg/server"
	middleware "github.com/milan604/permcatalog/pkg/server/middleware"
)

const metricsNamespace = "permcatalog"

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd)
		},
	}
	cmd.Flags().String("service.port", "", "listen port")
	cmd.Flags().String("service.base_url", "", "prefix of canonical permission links")
	cmd.Flags().Bool("sources.watch", false, "reload when a source file changes")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, settings, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(settings.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.InfoF("starting %s, config %v", settings.Service.Name, cfg.MaskedSettings())

	if cfg.Watch(func() {
		if err := log.SetLogLevel(cfg.GetString("log.level")); err != nil {
			log.WarnF("ignoring log level change: %v", err)
		}
	}) {
		log.InfoF("watching %s for log level changes", cfg.ConfigFileUsed())
	}

	obs, err := observability.New(ctx, log, settings)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			log.WarnF("observability shutdown: %v", err)
		}
	}()

	metrics := observability.NewCatalogMetrics(metricsNamespace)
	store := permissions.NewStore(nil)
	reloader, err := permissions.Bootstrap(ctx, settings, log, store,
		permissions.WithReloadHook(func(ctx context.Context, err error) {
			metrics.RecordReload(ctx, err)
			metrics.ObserveCatalog(store.Status().Snapshot())
		}),
	)
	if reloader == nil {
		return err
	}
	defer func() { _ = reloader.Close() }()
	if err != nil {
		// served as a retry prompt until a reload succeeds
		log.WarnF("serving without a catalog: %v", err)
	}

	handler := catalogapi.New(store,
		catalogapi.WithBaseURL(settings.Service.BaseURL),
		catalogapi.WithLogger(log),
		catalogapi.WithMetrics(metrics),
		catalogapi.WithReloader(reloader),
		catalogapi.WithReloadAuth(auth.JWTConfigFrom(settings.Auth), settings.Auth.ReloadScope),
	)
	if settings.Auth.JWTSecret == "" {
		log.InfoF("reload API disabled: auth.jwt_secret is not set")
	}

	engineOpts := []server.EngineOption{
		server.WithLogger(log),
		server.WithRecovery(true),
		server.WithCors(middleware.CorsConfigFrom(settings.CORS)),
	}
	if settings.RateLimit.Enabled {
		rl := middleware.RateLimitConfigFrom(settings.RateLimit)
		rl.StartCleanup(ctx.Done())
		engineOpts = append(engineOpts, server.WithRateLimit(rl))
	}
	if settings.Observability.Metrics {
		pc := middleware.NewPrometheusCollector(metricsNamespace, "/metrics", metrics.Collectors()...)
		engineOpts = append(engineOpts, server.WithPrometheus(pc))
	}
	if settings.Observability.Tracing {
		engineOpts = append(engineOpts, server.WithTracing(settings.Service.Name))
	}

	engine := server.NewEngine(engineOpts...)
	handler.RegisterRoutes(engine)

	err = server.Start(ctx, engine,
		server.StartWithSettings(settings.Service),
		server.StartWithLogger(log),
		server.StartWithBanner(true),
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
