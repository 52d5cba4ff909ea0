// Package fund manages fund metadata, NAV history and intraday estimates
package fund

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/interfaces"
	"github.com/tidewater/fundval/internal/models"
)

const defaultHistoryDays = 30

// Service implements FundService
type Service struct {
	storage  interfaces.StorageManager
	source   interfaces.ValuationSource
	logger   *common.Logger
	marketTZ *time.Location
	now      func() time.Time
}

// NewService creates a new fund service
func NewService(storage interfaces.StorageManager, source interfaces.ValuationSource, marketTimezone string, logger *common.Logger) *Service {
	return &Service{
		storage:  storage,
		source:   source,
		logger:   logger,
		marketTZ: common.MarketLocation(marketTimezone),
		now:      time.Now,
	}
}

// GetFundDetail returns metadata with the latest stored NAV and the current
// live estimate. A failed live fetch leaves Live nil; the detail itself is
// always returned.
func (s *Service) GetFundDetail(ctx context.Context, code string) (*models.FundDetail, error) {
	detail := &models.FundDetail{Fund: models.Fund{Code: code}}

	meta, err := s.storage.FundStorage().GetFund(ctx, code)
	if err == nil {
		detail.Fund = *meta
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to load fund '%s': %w", code, err)
	}

	if point, err := s.storage.HistoryStorage().LatestPoint(ctx, code); err == nil {
		detail.LatestNav = point
	}

	snap, err := s.source.FetchValuation(ctx, code)
	if err != nil {
		s.logger.Warn().Str("code", code).Err(err).Msg("Live valuation fetch failed")
		return detail, nil
	}
	detail.Live = snap

	if fund := s.seedMetadata(ctx, snap); fund != nil {
		detail.Fund = *fund
	}

	return detail, nil
}

// GetHistory returns stored NAV history ascending by date, limited to the
// most recent days points
func (s *Service) GetHistory(ctx context.Context, code string, days int) ([]models.HistoryPoint, error) {
	if days <= 0 {
		days = defaultHistoryDays
	}
	points, err := s.storage.HistoryStorage().GetHistory(ctx, code, days)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for '%s': %w", code, err)
	}
	return points, nil
}

// GetIntraday returns captured estimates for a fund on a given day.
// A zero day means today in the market timezone.
func (s *Service) GetIntraday(ctx context.Context, code string, day time.Time) ([]models.IntradaySnapshot, error) {
	if day.IsZero() {
		day = s.now().In(s.marketTZ)
	}
	snapshots, err := s.storage.SnapshotStorage().ListSnapshots(ctx, code, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load intraday snapshots for '%s': %w", code, err)
	}
	return snapshots, nil
}

// ListFunds returns all known fund metadata
func (s *Service) ListFunds(ctx context.Context) ([]*models.Fund, error) {
	funds, err := s.storage.FundStorage().ListFunds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}
	return funds, nil
}

// seedMetadata stores the name and inferred category when a fund is first
// seen (or its record has gone stale), so name resolution keeps working
// when the live source later omits fields. Returns the stored record.
func (s *Service) seedMetadata(ctx context.Context, snap *models.ValuationSnapshot) *models.Fund {
	if snap == nil || snap.Name == "" {
		return nil
	}

	existing, err := s.storage.FundStorage().GetFund(ctx, snap.Code)
	if err == nil && existing.Name != "" && common.IsFresh(existing.UpdatedAt, common.FreshnessFundMetadata) {
		return existing
	}

	fund := &models.Fund{Code: snap.Code, Name: snap.Name}
	if existing != nil && existing.Category != "" {
		fund.Category = existing.Category
	} else {
		fund.Category = classifyCategory(snap.Name)
	}

	if err := s.storage.FundStorage().SaveFund(ctx, fund); err != nil {
		s.logger.Warn().Str("code", snap.Code).Err(err).Msg("Failed to store fund metadata")
		return existing
	}
	return fund
}

// trackedCodes unions held and watched codes, sorted for stable iteration
func (s *Service) trackedCodes(ctx context.Context) ([]string, error) {
	held, err := s.storage.HoldingStorage().ListCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list held codes: %w", err)
	}
	watched, err := s.storage.WatchlistStorage().ListCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list watched codes: %w", err)
	}

	seen := make(map[string]struct{}, len(held)+len(watched))
	codes := make([]string, 0, len(held)+len(watched))
	for _, code := range append(held, watched...) {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

var _ interfaces.FundService = (*Service)(nil)
