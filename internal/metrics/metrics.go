// Package metrics provides Prometheus instrumentation for the OMS.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oms_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oms_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
	}, []string{"method", "route"})

	// HoldingsComputeDuration observes the pure aggregation time.
	HoldingsComputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "oms_holdings_compute_seconds",
		Help:    "Time spent aggregating trades into holdings",
		Buckets: prometheus.DefBuckets,
	})

	// HoldingsAssets is the number of holdings in the last computed view.
	HoldingsAssets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oms_holdings_assets",
		Help: "Number of assets in the last holdings view",
	})

	// LedgerWritesTotal counts trade ledger mutations by operation.
	LedgerWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oms_ledger_writes_total",
		Help: "Trade ledger writes",
	}, []string{"op"})

	// RefDataCacheTotal counts reference-data cache lookups by result.
	RefDataCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oms_refdata_cache_total",
		Help: "Reference data cache lookups",
	}, []string{"result"})

	// RefDataRequestDuration tracks calls to the market-data bridge.
	RefDataRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "oms_refdata_request_duration_seconds",
		Help:    "Reference data bridge request latency",
		Buckets: prometheus.DefBuckets,
	})

	// EventsPublishedTotal counts Kafka events by type and outcome.
	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oms_events_published_total",
		Help: "Events published to Kafka",
	}, []string{"event_type", "outcome"})

	// BookedTradesTotal counts consumed booking events by outcome.
	BookedTradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oms_booked_trades_total",
		Help: "TRADE_BOOKED events processed",
	}, []string{"outcome"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route template for the label to avoid high cardinality.
		route := RouteTemplate(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration)
	})
}

// RouteTemplate returns the matched mux route template, or "unmatched"
func RouteTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
