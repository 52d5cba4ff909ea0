package server

import (
	"fmt"
	"math"
	"time"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/models"
)

// The DTO layer is the presentation boundary: derived money figures and
// return rates round to 2 decimals, raw inputs (units, NAVs, estimates)
// pass through untouched, and missing dates render as the "--" marker.

const displayDate = "2006-01-02"
const displayTime = "2006-01-02 15:04"

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func dateString(t time.Time) string {
	if t.IsZero() {
		return models.InsufficientMarker
	}
	return t.Format(displayDate)
}

func timeString(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return models.InsufficientMarker
	}
	return t.In(loc).Format(displayTime)
}

// positionDTO is the per-holding row consumed by the UI.
type positionDTO struct {
	Code              string  `json:"code"`
	Name              string  `json:"name"`
	Category          string  `json:"category,omitempty"`
	Units             float64 `json:"units"`
	CostPerUnit       float64 `json:"cost_per_unit"`
	ConfirmedNav      float64 `json:"confirmed_nav"`
	NavDate           string  `json:"nav_date"`
	LiveEstimate      float64 `json:"live_estimate"`
	EstimateChangePct float64 `json:"estimate_change_pct"`
	EstimateValid     bool    `json:"estimate_valid"`
	AsOfTime          string  `json:"as_of_time"`

	CostBasis                float64 `json:"cost_basis"`
	ConfirmedMarketValue     float64 `json:"confirmed_market_value"`
	LiveMarketValue          float64 `json:"live_market_value"`
	ConfirmedIncome          float64 `json:"confirmed_income"`
	ConfirmedReturnRate      float64 `json:"confirmed_return_rate"`
	DayIncome                float64 `json:"day_income"`
	ProjectedTotalIncome     float64 `json:"projected_total_income"`
	ProjectedTotalReturnRate float64 `json:"projected_total_return_rate"`
	NavConfirmedToday        bool    `json:"nav_confirmed_today"`

	Degraded bool `json:"degraded,omitempty"`
}

// summaryDTO is the portfolio header row.
type summaryDTO struct {
	TotalLiveMarketValue     float64   `json:"total_live_market_value"`
	TotalCostBasis           float64   `json:"total_cost_basis"`
	TotalDayIncome           float64   `json:"total_day_income"`
	TotalProjectedIncome     float64   `json:"total_projected_income"`
	TotalProjectedReturnRate float64   `json:"total_projected_return_rate"`
	PositionCount            int       `json:"position_count"`
	AsOf                     time.Time `json:"as_of"`
}

// positionsResponse bundles the summary with its rows.
type positionsResponse struct {
	Account   string        `json:"account"`
	Summary   summaryDTO    `json:"summary"`
	Positions []positionDTO `json:"positions"`
}

func newPositionDTO(p models.PositionView, loc *time.Location) positionDTO {
	return positionDTO{
		Code:              p.Code,
		Name:              p.Name,
		Category:          p.Category,
		Units:             p.Units,
		CostPerUnit:       p.CostPerUnit,
		ConfirmedNav:      p.ConfirmedNav,
		NavDate:           dateString(p.NavDate),
		LiveEstimate:      p.LiveEstimate,
		EstimateChangePct: p.EstimateChangePct,
		EstimateValid:     p.EstimateValid,
		AsOfTime:          timeString(p.AsOfTime, loc),

		CostBasis:                round2(p.CostBasis),
		ConfirmedMarketValue:     round2(p.ConfirmedMarketValue),
		LiveMarketValue:          round2(p.LiveMarketValue),
		ConfirmedIncome:          round2(p.ConfirmedIncome),
		ConfirmedReturnRate:      round2(p.ConfirmedReturnRate),
		DayIncome:                round2(p.DayIncome),
		ProjectedTotalIncome:     round2(p.ProjectedTotalIncome),
		ProjectedTotalReturnRate: round2(p.ProjectedTotalReturnRate),
		NavConfirmedToday:        p.NavConfirmedToday,

		Degraded: p.Degraded,
	}
}

func newPositionsResponse(p *models.PortfolioPositions, loc *time.Location) positionsResponse {
	positions := make([]positionDTO, 0, len(p.Positions))
	for _, row := range p.Positions {
		positions = append(positions, newPositionDTO(row, loc))
	}
	return positionsResponse{
		Account: p.Account,
		Summary: summaryDTO{
			TotalLiveMarketValue:     round2(p.Summary.TotalLiveMarketValue),
			TotalCostBasis:           round2(p.Summary.TotalCostBasis),
			TotalDayIncome:           round2(p.Summary.TotalDayIncome),
			TotalProjectedIncome:     round2(p.Summary.TotalProjectedIncome),
			TotalProjectedReturnRate: round2(p.Summary.TotalProjectedReturnRate),
			PositionCount:            p.Summary.PositionCount,
			AsOf:                     p.Summary.AsOf,
		},
		Positions: positions,
	}
}

// riskDTO carries the indicator set as display strings, the template
// variables a narrative generator consumes.
type riskDTO struct {
	Code         string    `json:"code"`
	WindowDays   int       `json:"window_days"`
	Sharpe       string    `json:"sharpe"`
	Volatility   string    `json:"volatility"`
	MaxDrawdown  string    `json:"max_drawdown"`
	AnnualReturn string    `json:"annual_return"`
	DataPoints   int       `json:"data_points"`
	Consistency  string    `json:"consistency"`
	Deviation    string    `json:"deviation,omitempty"`
	ComputedAt   time.Time `json:"computed_at"`
}

func newRiskDTO(report *models.RiskReport) riskDTO {
	dto := riskDTO{
		Code:         report.Code,
		WindowDays:   report.WindowDays,
		Sharpe:       report.Indicators.Sharpe.FormatRatio(),
		Volatility:   report.Indicators.Volatility.FormatPercent(),
		MaxDrawdown:  report.Indicators.MaxDrawdown.FormatPercent(),
		AnnualReturn: report.Indicators.AnnualReturn.FormatPercent(),
		DataPoints:   report.Indicators.DataPoints,
		Consistency:  verdictText(report.Consistency),
		ComputedAt:   report.ComputedAt,
	}
	if report.Consistency.Status != models.VerdictSkipped {
		dto.Deviation = fmt.Sprintf("%.2f", report.Consistency.Deviation)
	}
	return dto
}

// verdictText renders the consistency verdict as advisory text. It describes
// the indicators; it never changes them.
func verdictText(v models.ConsistencyVerdict) string {
	switch v.Status {
	case models.VerdictPass:
		return fmt.Sprintf("sharpe consistent with annual return and volatility (deviation %.2f)", v.Deviation)
	case models.VerdictWarning:
		return fmt.Sprintf("sharpe deviates %.2f from the value implied by annual return and volatility", v.Deviation)
	case models.VerdictSkipped:
		return "not checked: " + v.Reason
	default:
		return string(v.Status)
	}
}

// intradaySnapshotDTO is one chart point.
type intradaySnapshotDTO struct {
	Time      string  `json:"time"`
	Estimate  float64 `json:"estimate"`
	ChangePct float64 `json:"change_pct"`
}

// intradayResponse is the chart payload: the day's captured estimates plus
// the previous confirmed NAV as the baseline.
type intradayResponse struct {
	Date            string                `json:"date"`
	PrevNav         *float64              `json:"prev_nav"`
	Snapshots       []intradaySnapshotDTO `json:"snapshots"`
	LastCollectedAt string                `json:"last_collected_at,omitempty"`
}

func newIntradayResponse(day time.Time, prevNav *float64, snaps []models.IntradaySnapshot, loc *time.Location) intradayResponse {
	snapshots := make([]intradaySnapshotDTO, 0, len(snaps))
	for _, snap := range snaps {
		snapshots = append(snapshots, intradaySnapshotDTO{
			Time:      snap.CapturedAt.In(loc).Format("15:04"),
			Estimate:  snap.Estimate,
			ChangePct: snap.ChangePct,
		})
	}
	resp := intradayResponse{
		Date:      day.Format(displayDate),
		PrevNav:   prevNav,
		Snapshots: snapshots,
	}
	if len(snapshots) > 0 {
		resp.LastCollectedAt = snapshots[len(snapshots)-1].Time
	}
	return resp
}

func (s *Server) marketLocation() *time.Location {
	return common.MarketLocation(s.app.Config.Portfolio.MarketTimezone)
}
