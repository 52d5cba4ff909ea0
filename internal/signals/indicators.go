// Package signals provides risk indicator calculations
package signals

import (
	"math"

	"github.com/montanaflynn/stats"
)

// TradingDaysPerYear is the annualization basis used by every indicator
const TradingDaysPerYear = 252

// DailyReturns calculates day-over-day returns from an ascending NAV series.
// Points following a zero NAV are skipped.
func DailyReturns(navs []float64) []float64 {
	if len(navs) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(navs)-1)
	for i := 1; i < len(navs); i++ {
		prev := navs[i-1]
		if prev == 0 {
			continue
		}
		returns = append(returns, navs[i]/prev-1)
	}
	return returns
}

// AnnualizedReturn compounds the growth from first to last NAV over the
// given number of daily periods onto a trading year
func AnnualizedReturn(first, last float64, periods int) float64 {
	if periods <= 0 || first <= 0 || last <= 0 {
		return 0
	}
	return math.Pow(last/first, float64(TradingDaysPerYear)/float64(periods)) - 1
}

// AnnualizedVolatility scales the sample standard deviation of daily
// returns by sqrt(252)
func AnnualizedVolatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	stdev, err := stats.StandardDeviationSample(returns)
	if err != nil {
		return 0
	}
	return stdev * math.Sqrt(TradingDaysPerYear)
}

// SharpeRatio calculates excess annual return per unit of volatility
func SharpeRatio(annualReturn, volatility, riskFreeRate float64) float64 {
	if volatility == 0 {
		return 0
	}
	return (annualReturn - riskFreeRate) / volatility
}

// MaxDrawdown returns the largest peak-to-trough decline as a fraction
// of the running peak
func MaxDrawdown(navs []float64) float64 {
	maxDD := 0.0
	peak := 0.0
	for _, nav := range navs {
		if nav > peak {
			peak = nav
		}
		if peak <= 0 {
			continue
		}
		if dd := 1 - nav/peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
