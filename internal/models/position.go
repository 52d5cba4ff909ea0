package models

import "time"

// Holding represents one fund position in an account. Only holdings with
// Units > 0 participate in valuation.
type Holding struct {
	Account     string    `json:"account"`
	Code        string    `json:"code"`
	CostPerUnit float64   `json:"cost_per_unit"` // average acquisition NAV per unit
	Units       float64   `json:"units"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CostBasis returns the capital deployed into this holding.
func (h Holding) CostBasis() float64 {
	return h.CostPerUnit * h.Units
}

// PositionView is the derived per-holding valuation row.
// Computed on response, not persisted.
type PositionView struct {
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	Category          string    `json:"category,omitempty"`
	Units             float64   `json:"units"`
	CostPerUnit       float64   `json:"cost_per_unit"`
	ConfirmedNav      float64   `json:"confirmed_nav"`
	NavDate           time.Time `json:"nav_date"`
	LiveEstimate      float64   `json:"live_estimate"`
	EstimateChangePct float64   `json:"estimate_change_pct"`
	EstimateValid     bool      `json:"estimate_valid"`
	AsOfTime          time.Time `json:"as_of_time"`

	CostBasis                float64 `json:"cost_basis"`
	ConfirmedMarketValue     float64 `json:"confirmed_market_value"`
	LiveMarketValue          float64 `json:"live_market_value"` // equals confirmed value when the estimate is invalid
	ConfirmedIncome          float64 `json:"confirmed_income"`
	ConfirmedReturnRate      float64 `json:"confirmed_return_rate"` // percent
	DayIncome                float64 `json:"day_income"`
	ProjectedTotalIncome     float64 `json:"projected_total_income"`
	ProjectedTotalReturnRate float64 `json:"projected_total_return_rate"` // percent
	NavConfirmedToday        bool    `json:"nav_confirmed_today"`

	Degraded bool `json:"degraded,omitempty"` // fetch or derivation failed; derived fields are zeroed
}

// PortfolioSummary is the aggregate header for a positions response.
// It deliberately totals live (projected) values while per-row figures expose
// confirmed and projected separately.
type PortfolioSummary struct {
	TotalLiveMarketValue     float64   `json:"total_live_market_value"`
	TotalCostBasis           float64   `json:"total_cost_basis"`
	TotalDayIncome           float64   `json:"total_day_income"`
	TotalProjectedIncome     float64   `json:"total_projected_income"`
	TotalProjectedReturnRate float64   `json:"total_projected_return_rate"` // percent
	PositionCount            int       `json:"position_count"`
	AsOf                     time.Time `json:"as_of"`
}

// PortfolioPositions bundles the summary with its per-holding rows.
type PortfolioPositions struct {
	Account   string           `json:"account"`
	Summary   PortfolioSummary `json:"summary"`
	Positions []PositionView   `json:"positions"`
}
