package query

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/tally/pkg/store"
	"github.com/platinummonkey/tally/pkg/timewindow"
)

// StatsReader is the slice of the store adapter the query service reads
// through.
type StatsReader interface {
	ScalarRead(ctx context.Context, key string) (int64, error)
	ApproxCount(ctx context.Context, key string) (int64, error)
	TopN(ctx context.Context, key string, n int) ([]store.ScoredEntry, error)
}

// Stats is the point-in-time view of a tenant's current activity.
type Stats struct {
	Tenant           string `json:"tenant"`
	Minute           string `json:"minute"`
	EventsThisMinute int64  `json:"events_this_minute"`
	UniqueUsersToday int64  `json:"unique_users_today"`
}

// PathCount is one entry of a tenant's path ranking.
type PathCount struct {
	Path  string `json:"path"`
	Count int64  `json:"count"`
}

// DefaultTopN is the number of ranking entries returned when the caller
// does not specify one.
const DefaultTopN = 10

// Service answers read-only, idempotent queries over the current
// aggregates. "Now" is always the server clock, never client-supplied;
// reads see whatever the store currently holds.
type Service struct {
	store StatsReader
	now   func() time.Time
}

// NewService creates a query service.
func NewService(store StatsReader) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// WithClock overrides the server clock. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetStats reports the tenant's event count for the current minute and the
// approximate number of distinct users seen today. The two reads are
// independent and run concurrently; an expired or absent counter reads as
// zero.
func (s *Service) GetStats(ctx context.Context, tenant string) (*Stats, error) {
	keys := timewindow.Derive(s.now())

	stats := &Stats{
		Tenant: tenant,
		Minute: keys.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.store.ScalarRead(gctx, timewindow.MinuteCounterKey(tenant, keys.Minute))
		if err != nil {
			return err
		}
		stats.EventsThisMinute = count
		return nil
	})
	g.Go(func() error {
		users, err := s.store.ApproxCount(gctx, timewindow.DailyUsersReadKey(tenant, keys.Day))
		if err != nil {
			return err
		}
		stats.UniqueUsersToday = users
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// GetTopPaths returns up to n of the tenant's most-hit paths, descending by
// count. A tenant with no ranking yields an empty slice, not an error;
// n <= 0 also yields an empty slice.
func (s *Service) GetTopPaths(ctx context.Context, tenant string, n int) ([]PathCount, error) {
	entries, err := s.store.TopN(ctx, timewindow.TopPathsKey(tenant), n)
	if err != nil {
		return nil, err
	}

	paths := make([]PathCount, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, PathCount{Path: entry.Member, Count: int64(entry.Score)})
	}
	return paths, nil
}
