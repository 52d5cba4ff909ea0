// Package models defines data structures for FundVal
package models

import "time"

// Fund holds fund metadata, used as the name/category fallback when the
// live source omits them.
type Fund struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"` // e.g. 混合型, 股票指数, ETF联接
	UpdatedAt time.Time `json:"updated_at"`
}

// ValuationSnapshot is the per-code payload from the live valuation source.
// Any field may be absent; zero values are expected and must never fault
// downstream derivation.
type ValuationSnapshot struct {
	Code              string    `json:"code"`
	Name              string    `json:"name,omitempty"`
	ConfirmedNav      float64   `json:"confirmed_nav"`       // last published NAV per unit
	LiveEstimate      float64   `json:"live_estimate"`       // unofficial intraday estimate
	EstimateChangePct float64   `json:"estimate_change_pct"` // estimate change vs confirmed NAV, in percent
	NavDate           time.Time `json:"nav_date"`            // date the confirmed NAV was published for
	AsOfTime          time.Time `json:"as_of_time"`          // estimate timestamp reported by the source
}

// HistoryPoint is one confirmed NAV observation. A history series is
// ascending by date and unique per date.
type HistoryPoint struct {
	Date time.Time `json:"date"`
	Nav  float64   `json:"nav"`
}

// NavHistory is the stored confirmed NAV series for one fund.
// Points are kept ascending by date, unique per date.
type NavHistory struct {
	Code      string         `json:"code"`
	Points    []HistoryPoint `json:"points"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IntradaySnapshot records a live estimate captured during the trading window.
type IntradaySnapshot struct {
	Code       string    `json:"code"`
	CapturedAt time.Time `json:"captured_at"`
	Estimate   float64   `json:"estimate"`
	ChangePct  float64   `json:"change_pct"`
}

// FundDetail combines metadata with the latest confirmed and live valuations.
// Computed on response, not persisted.
type FundDetail struct {
	Fund      Fund               `json:"fund"`
	LatestNav *HistoryPoint      `json:"latest_nav,omitempty"`
	Live      *ValuationSnapshot `json:"live,omitempty"` // nil when the live fetch failed
}

// RefreshResult summarizes one NAV refresh pass over the tracked codes.
type RefreshResult struct {
	Updated int             `json:"updated"` // codes with a newly stored confirmed NAV
	Pending int             `json:"pending"` // codes where the source has published nothing new
	Failed  int             `json:"failed"`  // codes whose history fetch errored
	Details []RefreshDetail `json:"details,omitempty"`
}

// RefreshDetail is the per-code outcome of a refresh pass.
type RefreshDetail struct {
	Code    string    `json:"code"`
	Status  string    `json:"status"` // updated, pending, failed
	NavDate time.Time `json:"nav_date"`
	Error   string    `json:"error,omitempty"`
}
