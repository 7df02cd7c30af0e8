// Package query answers point-in-time reads over the live aggregates:
// current-minute event counts, today's approximate distinct users, and
// top-path rankings. Reads derive "now" from the server clock and offer no
// guarantee beyond what the store currently holds.
package query
