// Package metrics exposes Prometheus collectors on a private registry.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/demo-api/internal/ratelimit"
)

type Metrics struct {
	registry *prometheus.Registry

	reqTotal     *prometheus.CounterVec
	reqLatency   *prometheus.HistogramVec
	decisions    *prometheus.CounterVec
	itemsCreated prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		reqTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		reqLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratelimit_decisions_total",
				Help: "Rate limiter decisions by outcome",
			},
			[]string{"decision"},
		),
		itemsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "items_created_total",
			Help: "Items created through the API",
		}),
	}

	registry.MustRegister(
		m.reqTotal,
		m.reqLatency,
		m.decisions,
		m.itemsCreated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Expose both series at zero before the first request.
	m.decisions.WithLabelValues(ratelimit.Allow.String())
	m.decisions.WithLabelValues(ratelimit.Reject.String())

	return m
}

// Middleware records request count and latency labelled by chi route pattern.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			path := RoutePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.reqTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
			m.reqLatency.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Record implements ratelimit.Recorder.
func (m *Metrics) Record(_ context.Context, ev ratelimit.Event) error {
	m.decisions.WithLabelValues(ev.Decision.String()).Inc()
	return nil
}

func (m *Metrics) ItemCreated() {
	m.itemsCreated.Inc()
}

// RoutePattern returns the matched chi pattern, so unbounded raw paths
// never become label values.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
