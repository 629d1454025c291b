// Package metrics provides Prometheus instrumentation for the simulation
// service.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SimulationsTotal counts simulations run, partitioned by installment type.
	SimulationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consortium_simulations_total",
		Help: "Total number of simulations run",
	}, []string{"installment_type"})

	// SimulationLatency tracks engine run time, cache hits included.
	SimulationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "consortium_simulation_latency_seconds",
		Help:    "Simulation latency in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	// MemoLookups counts memo lookups by outcome (hit or miss).
	MemoLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consortium_memo_lookups_total",
		Help: "Simulation memo lookups by outcome",
	}, []string{"outcome"})

	// ProposalsSaved counts saved proposals.
	ProposalsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consortium_proposals_saved_total",
		Help: "Total number of proposals saved",
	})

	// ExportsTotal counts proposal exports by format.
	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consortium_exports_total",
		Help: "Proposal exports by format",
	}, []string{"format"})

	// ValidationRejections counts requests rejected by input validation.
	ValidationRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consortium_validation_rejections_total",
		Help: "Simulation requests rejected by validation",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "consortium_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consortium_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "consortium_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// MemoOutcome returns the label for a memo lookup.
func MemoOutcome(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
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

// Hijack lets WebSocket upgrades pass through the wrapper.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
