package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Ingestion metrics
	EventsIngestedTotal *prometheus.CounterVec

	// Store metrics
	RedisOpsTotal  *prometheus.CounterVec
	RedisOpLatency *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics.
// Metric names match the service being replaced so existing dashboards and
// alerts keep working.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		EventsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "events_ingested_total",
				Help: "Total number of events ingested",
			},
			[]string{"tenant"},
		),
		RedisOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redis_ops_total",
				Help: "Total number of Redis operations",
			},
			[]string{"op"},
		),
		RedisOpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "redis_latency_seconds",
				Help:    "Redis operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"op"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.EventsIngestedTotal,
		m.RedisOpsTotal,
		m.RedisOpLatency,
	)

	return m
}

// ObserveRedisOp records one operation counter increment and one latency
// observation for a store call. Called exactly once per call, success or
// failure, before any error propagates to the caller.
func (m *Metrics) ObserveRedisOp(op string, start time.Time) {
	m.RedisOpsTotal.WithLabelValues(op).Inc()
	m.RedisOpLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// Every request produces exactly one counter increment and one latency
// observation, regardless of outcome.
func HTTPMetricsMiddleware(metrics *Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.URL.Path, r.Method, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.URL.Path).Observe(duration)
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(r *mux.Router, registry *prometheus.Registry) {
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods("GET")
}
