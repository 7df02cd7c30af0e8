// Package config loads tally configuration from environment variables.
//
// Server and observability settings live under the TALLY_ prefix. The
// Redis connection keeps the unprefixed REDIS_HOST / REDIS_PORT_NUM
// names that existing deployments already set.
package config
