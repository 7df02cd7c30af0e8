// Package ingest validates inbound events and fans each one out into its
// three aggregate updates: per-minute counter, daily approximate
// distinct-user set, and all-time path ranking.
//
// Updates run in a fixed sequential order with abort-on-first-failure
// semantics and no rollback; cross-aggregate consistency is eventual, never
// point-in-time joint. See Pipeline for the full contract.
package ingest
