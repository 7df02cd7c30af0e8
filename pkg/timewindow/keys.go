package timewindow

import "time"

// Bucket layouts use UTC calendar semantics. The formats are part of the
// storage contract and must not change: existing aggregate keys in Redis
// are addressed by these exact strings.
const (
	minuteLayout = "20060102-1504"
	dayLayout    = "20060102"
)

// Keys holds the time-window bucket identifiers a single event falls into.
type Keys struct {
	Minute string // YYYYMMDD-HHMM, UTC
	Day    string // YYYYMMDD, UTC
}

// Derive maps an event timestamp to its minute and day buckets.
// Timestamps are not range-checked; out-of-range values produce keys that
// the store's expiry mechanism garbage-collects.
func Derive(t time.Time) Keys {
	utc := t.UTC()
	return Keys{
		Minute: utc.Format(minuteLayout),
		Day:    utc.Format(dayLayout),
	}
}

// MinuteBucket returns the UTC minute bucket for t.
func MinuteBucket(t time.Time) string {
	return t.UTC().Format(minuteLayout)
}

// DayBucket returns the UTC day bucket for t.
func DayBucket(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// MinuteCounterKey returns the per-tenant minute counter key.
func MinuteCounterKey(tenant, minuteBucket string) string {
	return "events:tenant:" + tenant + ":minute:" + minuteBucket
}

// DailyUsersKey returns the per-tenant daily distinct-user key used by the
// write path.
func DailyUsersKey(tenant, dayBucket string) string {
	return "users:tenant:" + tenant + ":day:" + dayBucket
}

// DailyUsersReadKey returns the key the read path queries for daily
// distinct users. Note the prefix differs from DailyUsersKey: reads use
// "uusers:" while writes use "users:". The mismatch is inherited from the
// system this service replaces and is kept until the intended prefix is
// confirmed; see DESIGN.md.
func DailyUsersReadKey(tenant, dayBucket string) string {
	return "uusers:tenant:" + tenant + ":day:" + dayBucket
}

// TopPathsKey returns the per-tenant all-time path ranking key.
func TopPathsKey(tenant string) string {
	return "top_paths:tenant:" + tenant
}
