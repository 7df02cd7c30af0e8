package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics_Registers(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	if m == nil {
		t.Fatal("Expected metrics to be non-nil")
	}

	// Registering the same metrics twice must panic via MustRegister
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected duplicate registration to panic")
		}
	}()
	NewMetrics(registry)
}

func TestObserveRedisOp(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.ObserveRedisOp("incr_expire", time.Now())
	m.ObserveRedisOp("incr_expire", time.Now())
	m.ObserveRedisOp("get", time.Now())

	if got := testutil.ToFloat64(m.RedisOpsTotal.WithLabelValues("incr_expire")); got != 2 {
		t.Errorf("Expected 2 incr_expire ops, got %v", got)
	}
	if got := testutil.ToFloat64(m.RedisOpsTotal.WithLabelValues("get")); got != 1 {
		t.Errorf("Expected 1 get op, got %v", got)
	}
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	handler := HTTPMetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/stats", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/stats", "GET", "418"))
	if got != 2 {
		t.Errorf("Expected 2 requests recorded, got %v", got)
	}
}

func TestHTTPMetricsMiddleware_DefaultStatus(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	// Handler that never calls WriteHeader: status must be recorded as 200
	handler := HTTPMetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/health", "GET", "200"))
	if got != 1 {
		t.Errorf("Expected 1 request with status 200, got %v", got)
	}
}
