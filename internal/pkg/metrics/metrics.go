// Package metrics exposes the Prometheus instruments the services record to.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "marketplace"

// Recorder bundles the application's counters and histograms.
type Recorder struct {
	placements       *prometheus.CounterVec
	placementSeconds prometheus.Histogram
	decrements       *prometheus.CounterVec
	addresses        *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpSeconds      *prometheus.HistogramVec
}

// New creates a Recorder and registers its instruments with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "orders", Name: "placements_total",
			Help: "Order placements by outcome.",
		}, []string{"outcome"}),
		placementSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "orders", Name: "placement_duration_seconds",
			Help:    "Duration of the order placement pipeline.",
			Buckets: prometheus.DefBuckets,
		}),
		decrements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "inventory", Name: "decrements_total",
			Help: "Inventory decrements by outcome.",
		}, []string{"outcome"}),
		addresses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "addresses", Name: "events_total",
			Help: "Address registry events (created, merged, collected).",
		}, []string{"event"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{
		r.placements, r.placementSeconds, r.decrements, r.addresses, r.httpRequests, r.httpSeconds,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// OrderPlaced records the outcome of one placement attempt.
func (r *Recorder) OrderPlaced(outcome string, took time.Duration) {
	if r == nil {
		return
	}
	r.placements.WithLabelValues(outcome).Inc()
	r.placementSeconds.Observe(took.Seconds())
}

// InventoryDecremented records the outcome of one decrement.
func (r *Recorder) InventoryDecremented(outcome string) {
	if r == nil {
		return
	}
	r.decrements.WithLabelValues(outcome).Inc()
}

// AddressEvent records a registry event such as "created" or "collected".
func (r *Recorder) AddressEvent(event string) {
	if r == nil {
		return
	}
	r.addresses.WithLabelValues(event).Inc()
}

// Middleware records request counts and latency keyed by the chi route pattern.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r == nil {
			next.ServeHTTP(w, req)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		r.httpRequests.WithLabelValues(req.Method, route, strconv.Itoa(ww.Status())).Inc()
		r.httpSeconds.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}
