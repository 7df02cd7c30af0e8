package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tally/pkg/ingest"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/query"
	"github.com/platinummonkey/tally/pkg/store"
)

// setupServerTest builds the full server over a miniredis, with the server
// clock pinned just after the reference epoch so /stats reads the same
// minute the test events land in.
func setupServerTest(t *testing.T) (*Server, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	logger := observability.NewLogger(observability.ErrorLevel, nil)
	aggregates := store.New(client, metrics)

	now := func() time.Time { return time.Unix(1700000010, 0) }
	pipeline := ingest.NewPipeline(aggregates, metrics).WithClock(now)
	queries := query.NewService(aggregates).WithClock(now)

	server := NewServer(pipeline, queries, aggregates, logger, metrics, registry)

	cleanup := func() {
		client.Close()
		mr.Close()
	}
	return server, mr, cleanup
}

func doRequest(server *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	server, _, cleanup := setupServerTest(t)
	defer cleanup()

	rec := doRequest(server, "GET", "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	server, mr, cleanup := setupServerTest(t)
	defer cleanup()

	rec := doRequest(server, "GET", "/health/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)

	mr.Close()
	rec = doRequest(server, "GET", "/health/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIngest_SameMinuteScenario(t *testing.T) {
	server, mr, cleanup := setupServerTest(t)
	defer cleanup()

	rec := doRequest(server, "POST", "/ingest", `{"tenant":"a","user":"u1","path":"/x","ts":1700000000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = doRequest(server, "POST", "/ingest", `{"tenant":"a","user":"u2","path":"/x","ts":1700000005}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// Both events land in the same UTC minute bucket
	count, err := mr.Get("events:tenant:a:minute:20231114-2213")
	require.NoError(t, err)
	assert.Equal(t, "2", count)

	rec = doRequest(server, "GET", "/top-paths?tenant=a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"path":"/x","count":2}]`, rec.Body.String())

	rec = doRequest(server, "GET", "/stats?tenant=a", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "a", stats["tenant"])
	assert.Equal(t, "20231114-2213", stats["minute"])
	assert.Equal(t, float64(2), stats["events_this_minute"])
}

func TestIngest_TenantIsolation(t *testing.T) {
	server, _, cleanup := setupServerTest(t)
	defer cleanup()

	doRequest(server, "POST", "/ingest", `{"tenant":"a","user":"u1","path":"/x","ts":1700000000}`)
	doRequest(server, "POST", "/ingest", `{"tenant":"b","user":"u1","path":"/x","ts":1700000000}`)
	doRequest(server, "POST", "/ingest", `{"tenant":"b","user":"u2","path":"/x","ts":1700000000}`)

	rec := doRequest(server, "GET", "/top-paths?tenant=a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"path":"/x","count":1}]`, rec.Body.String())

	rec = doRequest(server, "GET", "/top-paths?tenant=b", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"path":"/x","count":2}]`, rec.Body.String())
}

func TestIngest_Validation(t *testing.T) {
	server, _, cleanup := setupServerTest(t)
	defer cleanup()

	rec := doRequest(server, "POST", "/ingest", `{"user":"u1","path":"/x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant is required")

	rec = doRequest(server, "POST", "/ingest", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngest_StoreFailure(t *testing.T) {
	server, mr, cleanup := setupServerTest(t)
	defer cleanup()

	mr.Close()

	rec := doRequest(server, "POST", "/ingest", `{"tenant":"a","user":"u1","path":"/x"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "minute counter")
}

func TestStats_ZeroState(t *testing.T) {
	server, _, cleanup := setupServerTest(t)
	defer cleanup()

	rec := doRequest(server, "GET", "/stats?tenant=ghost", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, float64(0), stats["events_this_minute"])
	assert.Equal(t, float64(0), stats["unique_users_today"])
}

func TestStats_RequiresTenant(t *testing.T) {
	server, _, cleanup := setupServerTest(t)
	defer cleanup()

	rec := doRequest(server, "GET", "/stats", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(server, "GET", "/top-paths", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTopPaths_DefaultAndClamp(t *testing.T) {
	server, _, cleanup := setupServerTest(t)
	defer cleanup()

	// Twelve distinct paths; the default cut-off is ten
	for i := 0; i < 12; i++ {
		body := `{"tenant":"a","user":"u1","path":"/p` + string(rune('a'+i)) + `","ts":1700000000}`
		rec := doRequest(server, "POST", "/ingest", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(server, "GET", "/top-paths?tenant=a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var paths []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paths))
	assert.Len(t, paths, 10)

	rec = doRequest(server, "GET", "/top-paths?tenant=a&n=3", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paths))
	assert.Len(t, paths, 3)

	rec = doRequest(server, "GET", "/top-paths?tenant=a&n=0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = doRequest(server, "GET", "/top-paths?tenant=a&n=abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	server, _, cleanup := setupServerTest(t)
	defer cleanup()

	doRequest(server, "POST", "/ingest", `{"tenant":"a","user":"u1","path":"/x","ts":1700000000}`)

	rec := doRequest(server, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `events_ingested_total{tenant="a"} 1`)
	assert.Contains(t, body, `redis_ops_total{op="incr_expire"} 1`)
}

func TestRequestIDHeader(t *testing.T) {
	server, _, cleanup := setupServerTest(t)
	defer cleanup()

	rec := doRequest(server, "GET", "/health", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
