// Package watchlist tracks funds an account follows without holding units.
package watchlist

import (
	"context"
	"fmt"
	"time"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/interfaces"
	"github.com/tidewater/fundval/internal/models"
)

// Compile-time interface check
var _ interfaces.WatchlistService = (*Service)(nil)

// Service implements WatchlistService
type Service struct {
	storage interfaces.StorageManager
	source  interfaces.ValuationSource
	logger  *common.Logger

	now func() time.Time
}

// NewService creates a new watchlist service
func NewService(storage interfaces.StorageManager, source interfaces.ValuationSource, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		source:  source,
		logger:  logger,
		now:     time.Now,
	}
}

// Watch adds a fund to the account's watchlist.
func (s *Service) Watch(ctx context.Context, account, code string) error {
	if account == "" || code == "" {
		return fmt.Errorf("watch requires account and code")
	}

	entry := &models.WatchlistEntry{
		Account: account,
		Code:    code,
		AddedAt: s.now(),
	}
	if err := s.storage.WatchlistStorage().AddWatch(ctx, entry); err != nil {
		return fmt.Errorf("failed to watch '%s': %w", code, err)
	}

	s.logger.Info().Str("account", account).Str("code", code).Msg("Fund watched")
	return nil
}

// Unwatch removes a fund from the account's watchlist.
func (s *Service) Unwatch(ctx context.Context, account, code string) error {
	if err := s.storage.WatchlistStorage().RemoveWatch(ctx, account, code); err != nil {
		return fmt.Errorf("failed to unwatch '%s': %w", code, err)
	}

	s.logger.Info().Str("account", account).Str("code", code).Msg("Fund unwatched")
	return nil
}

// GetWatchlist returns the account's watched funds enriched with live
// valuations. A failed fetch leaves that entry's Live nil rather than
// failing the list. Fetches run sequentially; the source's rate limiter
// paces them and watchlists stay small.
func (s *Service) GetWatchlist(ctx context.Context, account string) ([]*models.WatchedFund, error) {
	entries, err := s.storage.WatchlistStorage().ListWatched(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist for '%s': %w", account, err)
	}

	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		codes = append(codes, e.Code)
	}
	metadata, err := s.storage.FundStorage().LookupFunds(ctx, codes)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to look up fund metadata")
		metadata = map[string]*models.Fund{}
	}

	watched := make([]*models.WatchedFund, 0, len(entries))
	for _, entry := range entries {
		w := &models.WatchedFund{
			Code:    entry.Code,
			Name:    entry.Code,
			AddedAt: entry.AddedAt,
		}
		if fund, ok := metadata[entry.Code]; ok {
			if fund.Name != "" {
				w.Name = fund.Name
			}
			w.Category = fund.Category
		}

		snap, err := s.source.FetchValuation(ctx, entry.Code)
		if err != nil {
			s.logger.Warn().Err(err).Str("code", entry.Code).Msg("Live fetch failed for watched fund")
		} else {
			w.Live = snap
			if snap.Name != "" {
				w.Name = snap.Name
			}
		}
		watched = append(watched, w)
	}

	return watched, nil
}
