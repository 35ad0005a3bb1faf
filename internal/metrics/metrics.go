// Package metrics exposes Prometheus instrumentation for the HTTP API,
// parcel lookups and the parcel cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes recorded by ParcelLookup.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// UnmatchedRoute labels requests no route matched, keeping arbitrary paths
// out of the route label.
const UnmatchedRoute = "unmatched"

// Metrics holds the collectors registered for one process.
//   - http_requests_total: requests by route pattern, method and status
//   - http_request_duration_seconds: latency by route pattern and method
//   - parcel_lookups_total: parcel lookups by outcome
//   - parcel_cache_requests_total: cache lookups by result (hit/miss)
type Metrics struct {
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	parcelLookups *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
	gatherer      prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "HTTP requests by route, method and status."},
			[]string{"route", "method", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		parcelLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "parcel_lookups_total", Help: "Parcel lookups by outcome."},
			[]string{"outcome"},
		),
		cacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "parcel_cache_requests_total", Help: "Parcel cache lookups by result."},
			[]string{"result"},
		),
		gatherer: reg,
	}
	reg.MustRegister(m.httpRequests, m.httpLatency, m.parcelLookups, m.cacheRequests)
	return m
}

// Middleware records request counts and latency, labelled by chi route pattern
// so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := UnmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}

// ParcelLookup records the outcome of a parcel lookup.
func (m *Metrics) ParcelLookup(outcome string) {
	m.parcelLookups.WithLabelValues(outcome).Inc()
}

// CacheResult records a cache hit or miss.
func (m *Metrics) CacheResult(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

// Handler returns the Prometheus exposition handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
