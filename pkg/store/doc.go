// Package store adapts Redis primitives into the aggregate operations the
// ingestion pipeline and query service consume.
//
// # Overview
//
// Redis is the source of truth for all aggregates: per-minute counters
// (INCR + EXPIRE), daily approximate distinct-user sets (PFADD + EXPIRE,
// HyperLogLog), and all-time path rankings (ZINCRBY / ZREVRANGE). The
// adapter exposes one method per logical operation and instruments every
// call with an operation-labeled counter and latency histogram.
//
// # Failure semantics
//
// Any connectivity or protocol failure wraps ErrUnavailable. A missing key
// on the read path is not an error: ScalarRead and ApproxCount report 0,
// TopN reports an empty slice. Metrics are recorded for every attempt
// before the error propagates.
package store
