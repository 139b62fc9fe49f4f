// Package metrics exposes Prometheus instrumentation for the storefront.
//
// All collectors are registered on a caller-supplied registry so tests can
// use a fresh prometheus.NewRegistry() each time. Every method is safe to
// call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Cache results
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics groups the HTTP and domain collectors
type Metrics struct {
	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
	OrdersPlaced  prometheus.Counter
	OrderFailures *prometheus.CounterVec
	CatalogCache  *prometheus.CounterVec
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders successfully placed.",
		}),
		OrderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_failures_total",
			Help:      "Order placements rejected, by reason.",
		}, []string{"reason"}),
		CatalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_total",
			Help:      "Catalog listing cache lookups, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.Requests, m.LatencyMS, m.OrdersPlaced, m.OrderFailures, m.CatalogCache)
	return m
}

// ObserveRequest records one handled request
func (m *Metrics) ObserveRequest(handler string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(handler).Observe(float64(elapsed.Microseconds()) / 1000)
}

// OrderPlaced counts a successful placement
func (m *Metrics) OrderPlaced() {
	if m == nil {
		return
	}
	m.OrdersPlaced.Inc()
}

// OrderFailed counts a rejected placement
func (m *Metrics) OrderFailed(reason string) {
	if m == nil {
		return
	}
	m.OrderFailures.WithLabelValues(reason).Inc()
}

// CacheLookup counts a catalog cache hit or miss
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.CatalogCache.WithLabelValues(result).Inc()
}

// Handler serves the exposition format for g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
