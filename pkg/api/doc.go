// Package api exposes the tally HTTP surface.
//
// # Endpoints
//
//   - GET  /health: liveness, always ok
//   - GET  /health/ready: readiness, pings the aggregate store
//   - GET  /metrics: Prometheus text exposition
//   - POST /ingest: ingest one event {tenant, user, path, ts?}
//   - GET  /stats: current-minute count and today's unique users for ?tenant=
//   - GET  /top-paths: top ?n= (default 10) paths for ?tenant=
//
// # Error contract
//
// Validation failures return 400 before any store call. Store failures
// abort the request and return 500 with the underlying error text; there
// are no retries and no partial-success responses. Every request is
// observed exactly once in the HTTP metrics regardless of outcome.
package api
