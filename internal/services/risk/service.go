// Package risk computes risk indicator reports from stored NAV history
package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/interfaces"
	"github.com/tidewater/fundval/internal/models"
	"github.com/tidewater/fundval/internal/signals"
)

// Service implements RiskService
type Service struct {
	storage  interfaces.StorageManager
	computer *signals.Computer
	logger   *common.Logger

	riskFreeRate       float64
	deviationThreshold float64
	defaultWindow      int
	now                func() time.Time
}

// NewService creates a new risk service
func NewService(storage interfaces.StorageManager, cfg common.RiskConfig, logger *common.Logger) *Service {
	riskFree := cfg.RiskFreeRate
	if riskFree <= 0 {
		riskFree = 0.02
	}
	threshold := cfg.SharpeDeviationThreshold
	if threshold <= 0 {
		threshold = 0.3
	}
	window := cfg.HistoryDays
	if window <= 0 {
		window = signals.TradingDaysPerYear
	}

	return &Service{
		storage:            storage,
		computer:           signals.NewComputer(riskFree),
		logger:             logger,
		riskFreeRate:       riskFree,
		deviationThreshold: threshold,
		defaultWindow:      window,
		now:                time.Now,
	}
}

// GetRiskReport computes indicators over a trailing window of stored NAVs
// and attaches the consistency verdict. Thin history yields markers, not
// errors.
func (s *Service) GetRiskReport(ctx context.Context, code string, windowDays int) (*models.RiskReport, error) {
	if windowDays <= 0 {
		windowDays = s.defaultWindow
	}

	points, err := s.storage.HistoryStorage().GetHistory(ctx, code, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for '%s': %w", code, err)
	}

	navs := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Nav > 0 {
			navs = append(navs, p.Nav)
		}
	}

	indicators := s.computer.Compute(navs)
	verdict := s.audit(indicators)

	s.logger.Debug().
		Str("code", code).
		Int("points", indicators.DataPoints).
		Str("verdict", string(verdict.Status)).
		Msg("Risk report computed")

	return &models.RiskReport{
		Code:        code,
		WindowDays:  windowDays,
		Indicators:  indicators,
		Consistency: verdict,
		ComputedAt:  s.now(),
	}, nil
}

var _ interfaces.RiskService = (*Service)(nil)
