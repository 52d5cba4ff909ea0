package models

import "time"

// WatchlistEntry tracks a fund the account follows without holding units.
type WatchlistEntry struct {
	Account string    `json:"account"`
	Code    string    `json:"code"`
	AddedAt time.Time `json:"added_at"`
}

// WatchedFund is a watchlist entry enriched with the latest valuation.
// Computed on response, not persisted.
type WatchedFund struct {
	Code     string             `json:"code"`
	Name     string             `json:"name"`
	Category string             `json:"category,omitempty"`
	AddedAt  time.Time          `json:"added_at"`
	Live     *ValuationSnapshot `json:"live,omitempty"` // nil when the live fetch failed
}
