package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/milan604/permcatalog/pkg/config"
	"github.com/milan604/permcatalog/pkg/logger"
)

// ObservabilityIface defines the interface for observability operations
type ObservabilityIface interface {
	// StartSpan creates a new span for tracing
	StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)

	// Shutdown flushes pending spans and stops the exporter
	Shutdown(ctx context.Context) error
}

// Observability owns the tracer provider. With tracing disabled it hands out
// the global no-op tracer and Shutdown does nothing.
type Observability struct {
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	log            logger.LogManager
}

// New sets up OpenTelemetry tracing with an OTLP/HTTP exporter when
// observability.tracing is enabled.
func New(ctx context.Context, log logger.LogManager, s config.Settings) (ObservabilityIface, error) {
	if log == nil {
		log = logger.NewNop()
	}
	serviceName := s.Service.Name
	if serviceName == "" {
		serviceName = "permcatalog"
	}

	if !s.Observability.Tracing {
		return &Observability{tracer: otel.Tracer(serviceName), log: log}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", s.Service.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(s.Observability.TracingEndpoint, "http://"), "https://")
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.InfoF("tracing enabled: service=%s, endpoint=%s", serviceName, endpoint)

	return &Observability{
		tracerProvider: tp,
		tracer:         tp.Tracer(serviceName, trace.WithInstrumentationVersion(s.Service.Version)),
		log:            log,
	}, nil
}

// StartSpan creates a new span for tracing
func (o *Observability) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes pending spans.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o.tracerProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := o.tracerProvider.Shutdown(ctx); err != nil {
		o.log.ErrorF("failed to shutdown tracer provider: %v", err)
		return err
	}
	o.log.InfoF("tracing shutdown completed")
	return nil
}

// Tracer returns a named tracer from the global provider, for packages that
// do not hold an ObservabilityIface.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
