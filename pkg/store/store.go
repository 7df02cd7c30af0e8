package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/tally/pkg/observability"
)

// ErrUnavailable marks a connectivity or protocol failure from the backing
// store. Every failed operation wraps it; callers detect it with errors.Is.
var ErrUnavailable = errors.New("aggregate store unavailable")

// Operation labels for redis_ops_total / redis_latency_seconds. These match
// the service being replaced.
const (
	opIncrExpire = "incr_expire"
	opPFAdd      = "pfadd"
	opZIncrBy    = "zincrby"
	opGet        = "get"
	opPFCount    = "pfcount"
	opZRevRange  = "zrevrange"
)

// ScoredEntry is one member of a ranking, highest scores first.
type ScoredEntry struct {
	Member string
	Score  float64
}

// Aggregates adapts the Redis primitives the aggregation model needs:
// atomic counter increment with expiry, approximate distinct-set add with
// expiry, sorted-set increment, scalar read, approximate cardinality and
// top-N read. Each call is observed exactly once in the operation counter
// and latency histogram, success or failure.
type Aggregates struct {
	client  *redis.Client
	metrics *observability.Metrics
}

// New creates an aggregate store adapter over an existing Redis client.
// The client is process-wide and shared by all requests; per-key atomicity
// is delegated entirely to Redis.
func New(client *redis.Client, metrics *observability.Metrics) *Aggregates {
	return &Aggregates{
		client:  client,
		metrics: metrics,
	}
}

// Ping verifies store connectivity.
func (a *Aggregates) Ping(ctx context.Context) error {
	if err := a.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return nil
}

// IncrementAndExpire atomically increments the integer counter at key and
// (re-)sets its expiry, returning the new count. INCR and EXPIRE travel in
// one pipeline; if the expiry step fails after the increment has been
// applied server-side, the increment stands; nothing is rolled back and
// the error still propagates.
func (a *Aggregates) IncrementAndExpire(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	start := time.Now()
	defer a.metrics.ObserveRedisOp(opIncrExpire, start)

	pipe := a.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return incr.Val(), fmt.Errorf("%w: incr %s: %v", ErrUnavailable, key, err)
	}
	return incr.Val(), nil
}

// ApproxAddAndExpire adds member to the approximate distinct-count
// structure at key and extends its expiry. The expiry slides relative to
// the most recent write, not a fixed calendar boundary.
func (a *Aggregates) ApproxAddAndExpire(ctx context.Context, key, member string, ttl time.Duration) error {
	start := time.Now()
	defer a.metrics.ObserveRedisOp(opPFAdd, start)

	pipe := a.client.Pipeline()
	pipe.PFAdd(ctx, key, member)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: pfadd %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// SortedIncrement increments member's score in the ranking at key by
// delta, creating key and member as needed. Rankings never expire.
func (a *Aggregates) SortedIncrement(ctx context.Context, key, member string, delta float64) error {
	start := time.Now()
	defer a.metrics.ObserveRedisOp(opZIncrBy, start)

	if err := a.client.ZIncrBy(ctx, key, delta, member).Err(); err != nil {
		return fmt.Errorf("%w: zincrby %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// ScalarRead returns the integer value at key, or 0 if the key is absent
// or expired. Absence is not an error.
func (a *Aggregates) ScalarRead(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	defer a.metrics.ObserveRedisOp(opGet, start)

	val, err := a.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	return val, nil
}

// ApproxCount returns the approximate cardinality of the distinct-count
// structure at key; 0 for an absent key.
func (a *Aggregates) ApproxCount(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	defer a.metrics.ObserveRedisOp(opPFCount, start)

	count, err := a.client.PFCount(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: pfcount %s: %v", ErrUnavailable, key, err)
	}
	return count, nil
}

// TopN returns up to n highest-score entries at key in descending score
// order, ties broken by Redis's native ordering. n <= 0 yields an empty
// result without a store round trip.
func (a *Aggregates) TopN(ctx context.Context, key string, n int) ([]ScoredEntry, error) {
	if n <= 0 {
		return []ScoredEntry{}, nil
	}

	start := time.Now()
	defer a.metrics.ObserveRedisOp(opZRevRange, start)

	items, err := a.client.ZRevRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: zrevrange %s: %v", ErrUnavailable, key, err)
	}

	entries := make([]ScoredEntry, 0, len(items))
	for _, item := range items {
		member, ok := item.Member.(string)
		if !ok {
			member = fmt.Sprint(item.Member)
		}
		entries = append(entries, ScoredEntry{Member: member, Score: item.Score})
	}
	return entries, nil
}
