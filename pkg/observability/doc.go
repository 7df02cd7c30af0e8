// Package observability provides structured logging, Prometheus metrics and
// graceful shutdown for the tally service.
//
// # Metrics
//
// All metrics live on an explicit *prometheus.Registry constructed at
// startup; nothing registers against the global default registry.
//
//   - http_requests_total{route,method,status}
//   - http_request_duration_seconds{route}
//   - events_ingested_total{tenant}
//   - redis_ops_total{op}
//   - redis_latency_seconds{op}
//
// Every HTTP request and every store operation is observed exactly once,
// success or failure.
//
// # Logging
//
// Logger is a structured JSON logger over log/slog. Request IDs are carried
// through context:
//
//	logger := observability.FromContext(r.Context())
//	logger.WithField("tenant", ev.Tenant).Info("event ingested")
//
// # Shutdown
//
//	sm := observability.NewShutdownManager(logger, server, 30*time.Second)
//	sm.RegisterShutdownFunc(func(ctx context.Context) error { return rdb.Close() })
//	sm.WaitForShutdown()
package observability
