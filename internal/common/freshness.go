// Package common provides shared utilities for alphatalk
package common

import "time"

// Freshness TTLs for data components
const (
	FreshnessAnalysis     = 1 * time.Hour      // cached analysis records
	FreshnessPriceHistory = 1 * time.Hour      // intraday-ish price series
	FreshnessNews         = 6 * time.Hour      // news articles per ticker
	FreshnessFundamentals = 7 * 24 * time.Hour // financial-statement figures move slowly
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
