package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector holds the HTTP metrics, the registry they live in and
// the path the registry is exposed on.
type PrometheusCollector struct {
	reqCount    *prometheus.CounterVec
	reqDurHist  *prometheus.HistogramVec
	inFlight    prometheus.Gauge
	registry    *prometheus.Registry
	MetricsPath string
}

// NewPrometheusCollector creates a registry with HTTP, Go runtime and process
// metrics, plus any extra collectors.
func NewPrometheusCollector(namespace, metricsPath string, extra ...prometheus.Collector) *PrometheusCollector {
	reg := prometheus.NewRegistry()

	reqCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	reqDurHist := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of request durations",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_in_flight_requests",
		Help:      "Current number of in-flight requests",
	})

	reg.MustRegister(reqCount, reqDurHist, inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg.MustRegister(extra...)

	return &PrometheusCollector{
		reqCount:    reqCount,
		reqDurHist:  reqDurHist,
		inFlight:    inFlight,
		registry:    reg,
		MetricsPath: metricsPath,
	}
}

// PrometheusMiddleware returns a gin middleware that collects metrics.
func (pc *PrometheusCollector) PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == pc.MetricsPath {
			c.Next()
			return
		}
		start := time.Now()
		pc.inFlight.Inc()
		c.Next()
		pc.inFlight.Dec()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		pc.reqCount.WithLabelValues(c.Request.Method, path, status).Inc()
		pc.reqDurHist.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RegisterMetricsEndpoint registers /metrics (or custom path) on Gin engine.
func (pc *PrometheusCollector) RegisterMetricsEndpoint(engine *gin.Engine) {
	if pc.MetricsPath == "" {
		pc.MetricsPath = "/metrics"
	}
	engine.GET(pc.MetricsPath, gin.WrapH(promhttp.HandlerFor(pc.registry, promhttp.HandlerOpts{})))
}
