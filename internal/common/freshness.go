// Package common provides shared utilities for FundVal
package common

import "time"

// Freshness TTLs for stored data
const (
	FreshnessFundMetadata = 7 * 24 * time.Hour // names and categories rarely change
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}

// SameDay reports whether a and b fall on the same calendar date,
// compared in b's location. Zero times never match.
func SameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	a = a.In(b.Location())
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
