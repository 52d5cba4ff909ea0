// Package portfolio values account holdings against live and confirmed NAVs
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/interfaces"
	"github.com/tidewater/fundval/internal/models"
)

// Service implements PortfolioService
type Service struct {
	storage interfaces.StorageManager
	source  interfaces.ValuationSource
	logger  *common.Logger

	// sem bounds in-flight valuation fetches across all requests,
	// so the source rate limit holds under simultaneous portfolio views
	sem chan struct{}

	changeThreshold float64
	exemptPatterns  []string
	marketTZ        *time.Location
	now             func() time.Time
}

// NewService creates a new portfolio service
func NewService(storage interfaces.StorageManager, source interfaces.ValuationSource, cfg common.PortfolioConfig, logger *common.Logger) *Service {
	concurrency := cfg.FetchConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	threshold := cfg.EstimateChangeThreshold
	if threshold <= 0 {
		threshold = 10.0
	}
	patterns := cfg.ExemptNamePatterns
	if len(patterns) == 0 {
		patterns = []string{"ETF", "联接"}
	}
	return &Service{
		storage:         storage,
		source:          source,
		logger:          logger,
		sem:             make(chan struct{}, concurrency),
		changeThreshold: threshold,
		exemptPatterns:  patterns,
		marketTZ:        common.MarketLocation(cfg.MarketTimezone),
		now:             time.Now,
	}
}

// ListHoldings returns the account's active holdings ordered by code
func (s *Service) ListHoldings(ctx context.Context, account string) ([]*models.Holding, error) {
	holdings, err := s.storage.HoldingStorage().ListHoldings(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings for '%s': %w", account, err)
	}
	return holdings, nil
}

// GetHolding retrieves a single holding by code
func (s *Service) GetHolding(ctx context.Context, account, code string) (*models.Holding, error) {
	return s.storage.HoldingStorage().GetHolding(ctx, account, code)
}

// SaveHolding creates or replaces a holding
func (s *Service) SaveHolding(ctx context.Context, holding *models.Holding) error {
	if holding == nil || holding.Account == "" || holding.Code == "" {
		return fmt.Errorf("holding requires account and code")
	}
	if holding.Units < 0 || holding.CostPerUnit < 0 {
		return fmt.Errorf("holding '%s': units and cost per unit must not be negative", holding.Code)
	}

	if err := s.storage.HoldingStorage().SaveHolding(ctx, holding); err != nil {
		return fmt.Errorf("failed to save holding '%s': %w", holding.Code, err)
	}

	s.logger.Info().
		Str("account", holding.Account).
		Str("code", holding.Code).
		Float64("units", holding.Units).
		Msg("Holding saved")

	return nil
}

// DeleteHolding removes a holding by code
func (s *Service) DeleteHolding(ctx context.Context, account, code string) error {
	if err := s.storage.HoldingStorage().DeleteHolding(ctx, account, code); err != nil {
		return fmt.Errorf("failed to delete holding '%s': %w", code, err)
	}

	s.logger.Info().Str("account", account).Str("code", code).Msg("Holding deleted")

	return nil
}

var _ interfaces.PortfolioService = (*Service)(nil)
