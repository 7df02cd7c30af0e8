package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/timewindow"
)

// Aggregate TTLs. The minute counter outlives its window by enough to be
// read, the distinct-user set slides over the most recent 48h of activity,
// the path ranking never expires.
const (
	minuteCounterTTL = time.Hour
	dailyUsersTTL    = 48 * time.Hour
)

// Event is one user-activity event as submitted by a client. TS is Unix
// epoch seconds, interpreted as UTC; nil means "use the server clock at
// ingestion time".
type Event struct {
	Tenant string `json:"tenant"`
	User   string `json:"user"`
	Path   string `json:"path"`
	TS     *int64 `json:"ts,omitempty"`
}

// ValidationError reports a missing required event field. Validation
// failures are rejected before any store call.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

// Validate checks that tenant, user and path are present and non-empty.
// Timestamps are not range-checked; garbage values produce aggregates in
// whatever bucket they land in, bounded only by the store's expiry.
func (ev *Event) Validate() error {
	if ev.Tenant == "" {
		return &ValidationError{Field: "tenant"}
	}
	if ev.User == "" {
		return &ValidationError{Field: "user"}
	}
	if ev.Path == "" {
		return &ValidationError{Field: "path"}
	}
	return nil
}

// Time resolves the event timestamp, falling back to now for events that
// carry none.
func (ev *Event) Time(now func() time.Time) time.Time {
	if ev.TS != nil {
		return time.Unix(*ev.TS, 0).UTC()
	}
	return now().UTC()
}

// AggregateWriter is the slice of the store adapter the pipeline writes
// through.
type AggregateWriter interface {
	IncrementAndExpire(ctx context.Context, key string, ttl time.Duration) (int64, error)
	ApproxAddAndExpire(ctx context.Context, key, member string, ttl time.Duration) error
	SortedIncrement(ctx context.Context, key, member string, delta float64) error
}

// Pipeline turns one validated event into the three aggregate updates.
//
// The updates run in fixed order (minute counter, distinct users, path
// ranking) sequentially and without a cross-key transaction. Each update
// is individually atomic in the store; the pipeline aborts on the first
// failure without retrying or rolling back earlier updates, so a failure
// mid-way leaves partial aggregation for that event. At-most-once by
// design: there is no durable event log upstream to replay from.
type Pipeline struct {
	store   AggregateWriter
	metrics *observability.Metrics
	now     func() time.Time
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(store AggregateWriter, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		store:   store,
		metrics: metrics,
		now:     time.Now,
	}
}

// WithClock overrides the server clock used for events without a
// timestamp. For tests.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Ingest validates the event and applies its aggregate updates. Ingesting
// the same event twice counts it twice; there is no deduplication.
func (p *Pipeline) Ingest(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	keys := timewindow.Derive(ev.Time(p.now))

	if _, err := p.store.IncrementAndExpire(ctx, timewindow.MinuteCounterKey(ev.Tenant, keys.Minute), minuteCounterTTL); err != nil {
		return fmt.Errorf("minute counter: %w", err)
	}

	if err := p.store.ApproxAddAndExpire(ctx, timewindow.DailyUsersKey(ev.Tenant, keys.Day), ev.User, dailyUsersTTL); err != nil {
		return fmt.Errorf("distinct users: %w", err)
	}

	if err := p.store.SortedIncrement(ctx, timewindow.TopPathsKey(ev.Tenant), ev.Path, 1); err != nil {
		return fmt.Errorf("top paths: %w", err)
	}

	p.metrics.EventsIngestedTotal.WithLabelValues(ev.Tenant).Inc()
	return nil
}
