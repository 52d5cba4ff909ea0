// Package signals provides risk indicator calculations
package signals

import (
	"github.com/tidewater/fundval/internal/models"
)

// Computer derives the full indicator set from a NAV series
type Computer struct {
	riskFreeRate float64
}

// NewComputer creates an indicator computer using the given annual
// risk-free rate
func NewComputer(riskFreeRate float64) *Computer {
	return &Computer{riskFreeRate: riskFreeRate}
}

// Compute calculates all indicators from an ascending NAV series.
// Too little data yields insufficient markers, never an error.
func (c *Computer) Compute(navs []float64) models.RiskIndicators {
	if len(navs) < 2 {
		return insufficientIndicators(len(navs))
	}

	returns := DailyReturns(navs)
	if len(returns) == 0 {
		return insufficientIndicators(len(navs))
	}

	annualReturn := AnnualizedReturn(navs[0], navs[len(navs)-1], len(returns))

	ind := models.RiskIndicators{DataPoints: len(navs)}
	ind.AnnualReturn = models.MetricOf(annualReturn)
	ind.MaxDrawdown = models.MetricOf(MaxDrawdown(navs))

	// Sample stdev needs at least two returns
	if len(returns) < 2 {
		ind.Volatility = models.InsufficientMetric()
		ind.Sharpe = models.InsufficientMetric()
		return ind
	}

	vol := AnnualizedVolatility(returns)
	ind.Volatility = models.MetricOf(vol)
	if vol == 0 {
		ind.Sharpe = models.InsufficientMetric()
		return ind
	}
	ind.Sharpe = models.MetricOf(SharpeRatio(annualReturn, vol, c.riskFreeRate))

	return ind
}

func insufficientIndicators(points int) models.RiskIndicators {
	return models.RiskIndicators{
		Sharpe:       models.InsufficientMetric(),
		Volatility:   models.InsufficientMetric(),
		MaxDrawdown:  models.InsufficientMetric(),
		AnnualReturn: models.InsufficientMetric(),
		DataPoints:   points,
	}
}
