// Package observability exports application metrics in Prometheus format.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"playlist-backend/pkg/cache"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a new metrics collector with the given namespace. The
// cache service's counters are exported read-only: the service stays the
// single source of truth and the collector samples it at scrape time.
func NewCollector(namespace string, cacheSvc *cache.Service) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status", "cache"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		newCacheStatsCollector(namespace, cacheSvc),
	)

	return &Collector{
		registry:     registry,
		HTTPRequests: httpRequests,
		HTTPDuration: httpDuration,
	}
}

// Handler returns the /metrics scrape handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// Instrument records request count and duration per method and route. The
// cache label carries the X-Cache outcome (HIT, MISS, or none) so hit ratios
// are observable per endpoint.
func (c *Collector) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		cacheOutcome := ww.Header().Get("X-Cache")
		if cacheOutcome == "" {
			cacheOutcome = "none"
		}

		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status()), cacheOutcome).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// cacheStatsCollector samples the cache service's counters at scrape time.
type cacheStatsCollector struct {
	svc *cache.Service

	hits      *prometheus.Desc
	misses    *prometheus.Desc
	sets      *prometheus.Desc
	deletes   *prometheus.Desc
	errors    *prometheus.Desc
	connected *prometheus.Desc
}

func newCacheStatsCollector(namespace string, svc *cache.Service) *cacheStatsCollector {
	return &cacheStatsCollector{
		svc:       svc,
		hits:      prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "hits_total"), "Total number of cache hits", nil, nil),
		misses:    prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "misses_total"), "Total number of cache misses", nil, nil),
		sets:      prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "sets_total"), "Total number of cache writes", nil, nil),
		deletes:   prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "deletes_total"), "Total number of cache deletes", nil, nil),
		errors:    prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "errors_total"), "Total number of cache store errors", nil, nil),
		connected: prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "connected"), "Whether the cache store is reachable (1) or not (0)", nil, nil),
	}
}

func (c *cacheStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.sets
	ch <- c.deletes
	ch <- c.errors
	ch <- c.connected
}

func (c *cacheStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.svc.Stats()

	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(stats.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(stats.Misses))
	ch <- prometheus.MustNewConstMetric(c.sets, prometheus.CounterValue, float64(stats.Sets))
	ch <- prometheus.MustNewConstMetric(c.deletes, prometheus.CounterValue, float64(stats.Deletes))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(stats.Errors))

	connected := 0.0
	if stats.Connected {
		connected = 1.0
	}
	ch <- prometheus.MustNewConstMetric(c.connected, prometheus.GaugeValue, connected)
}
