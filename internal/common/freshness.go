// Package common provides shared utilities for the thesis pipeline.
package common

import "time"

// Per-source ceilings on the configured cache TTL. Search context goes
// stale within hours; intraday price bars even faster.
const (
	FreshnessSearch    = 6 * time.Hour
	FreshnessPriceBars = 1 * time.Hour
)

// EffectiveTTL caps a configured cache TTL at a per-source ceiling.
// A non-positive configured value falls back to the ceiling.
func EffectiveTTL(configured, ceiling time.Duration) time.Duration {
	if configured <= 0 || configured > ceiling {
		return ceiling
	}
	return configured
}
