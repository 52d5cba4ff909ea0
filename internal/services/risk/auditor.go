package risk

import (
	"math"

	"github.com/tidewater/fundval/internal/models"
)

// audit re-derives the Sharpe ratio from the reported annual return and
// volatility and flags indicator sets that do not cohere, which usually
// means they were computed over mismatched windows or stale inputs. The
// verdict is advisory; it never alters the indicators it describes.
func (s *Service) audit(ind models.RiskIndicators) models.ConsistencyVerdict {
	if !ind.Sharpe.Present() {
		return models.SkippedVerdict("sharpe unavailable")
	}
	if !ind.AnnualReturn.Present() {
		return models.SkippedVerdict("annual return unavailable")
	}
	if !ind.Volatility.Present() {
		return models.SkippedVerdict("volatility unavailable")
	}
	volatility := ind.Volatility.Value()
	if volatility == 0 {
		return models.SkippedVerdict("zero volatility")
	}

	expected := (ind.AnnualReturn.Value() - s.riskFreeRate) / volatility
	deviation := math.Abs(expected - ind.Sharpe.Value())

	if deviation > s.deviationThreshold {
		return models.WarningVerdict(deviation)
	}
	return models.PassVerdict(deviation)
}
