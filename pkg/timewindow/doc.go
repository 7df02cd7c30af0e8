// Package timewindow derives the time-bucketed aggregate keys an event
// belongs to.
//
// # Overview
//
// Every ingested event updates three aggregates: a per-minute counter, a
// per-day approximate distinct-user set, and an all-time path ranking. This
// package maps (tenant, timestamp) to the exact Redis keys for those
// aggregates using UTC calendar buckets.
//
// # Usage Example
//
//	keys := timewindow.Derive(time.Unix(ev.TS, 0))
//	counter := timewindow.MinuteCounterKey(ev.Tenant, keys.Minute)
//	users := timewindow.DailyUsersKey(ev.Tenant, keys.Day)
//
// All functions are pure; "now" is always supplied by the caller.
package timewindow
