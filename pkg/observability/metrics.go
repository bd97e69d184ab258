package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CatalogSnapshot is the subset of store status the metrics report.
type CatalogSnapshot struct {
	Ready       bool
	Version     uint64
	Count       int
	Provisioned int
}

// CatalogMetrics reports catalog size, reload outcomes and query latency.
// Values go to both the prometheus registry and the OpenTelemetry meter.
type CatalogMetrics struct {
	permissions *prometheus.GaugeVec
	version     prometheus.Gauge
	ready       prometheus.Gauge
	reloads     *prometheus.CounterVec
	queryDur    *prometheus.HistogramVec

	otelQueries metric.Int64Counter
	otelReloads metric.Int64Counter
}

// NewCatalogMetrics creates the catalog collectors under namespace.
func NewCatalogMetrics(namespace string) *CatalogMetrics {
	m := &CatalogMetrics{
		permissions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_permissions",
			Help:      "Permissions in the current catalog snapshot",
		}, []string{"kind"}),
		version: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_version",
			Help:      "Load generation of the current catalog snapshot",
		}),
		ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_ready",
			Help:      "1 once a catalog has been published",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_reloads_total",
			Help:      "Catalog load attempts by outcome",
		}, []string{"outcome"}),
		queryDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_query_duration_seconds",
			Help:      "Filter, sort and paginate latency",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"view"}),
	}

	meter := otel.Meter(namespace)
	// The global meter is a no-op until a provider is installed; errors only
	// arise from invalid instrument names.
	m.otelQueries, _ = meter.Int64Counter(namespace+".engine.queries", metric.WithDescription("Engine queries served"))
	m.otelReloads, _ = meter.Int64Counter(namespace+".catalog.reloads", metric.WithDescription("Catalog load attempts"))
	return m
}

// Collectors returns the prometheus collectors to register.
func (m *CatalogMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.permissions, m.version, m.ready, m.reloads, m.queryDur}
}

// ObserveCatalog records the current snapshot.
func (m *CatalogMetrics) ObserveCatalog(s CatalogSnapshot) {
	m.permissions.WithLabelValues("total").Set(float64(s.Count))
	m.permissions.WithLabelValues("provisioned").Set(float64(s.Provisioned))
	m.version.Set(float64(s.Version))
	if s.Ready {
		m.ready.Set(1)
	} else {
		m.ready.Set(0)
	}
}

// RecordReload counts a load attempt.
func (m *CatalogMetrics) RecordReload(ctx context.Context, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.reloads.WithLabelValues(outcome).Inc()
	if m.otelReloads != nil {
		m.otelReloads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

// RecordQuery observes one engine run for view ("advanced", "search", "api").
func (m *CatalogMetrics) RecordQuery(ctx context.Context, view string, d time.Duration) {
	m.queryDur.WithLabelValues(view).Observe(d.Seconds())
	if m.otelQueries != nil {
		m.otelQueries.Add(ctx, 1, metric.WithAttributes(attribute.String("view", view)))
	}
}
