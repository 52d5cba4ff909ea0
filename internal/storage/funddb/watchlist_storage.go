package funddb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/models"
)

type watchlistStorage struct {
	store  *Store
	logger *common.Logger
}

// NewWatchlistStorage creates a new WatchlistStorage backed by BadgerHold.
func NewWatchlistStorage(store *Store, logger *common.Logger) *watchlistStorage {
	return &watchlistStorage{store: store, logger: logger}
}

func (s *watchlistStorage) ListWatched(_ context.Context, account string) ([]*models.WatchlistEntry, error) {
	var all []models.WatchlistEntry
	if err := s.store.db.Find(&all, badgerhold.Where("Account").Eq(account)); err != nil {
		return nil, fmt.Errorf("failed to list watchlist for account '%s': %w", account, err)
	}

	result := make([]*models.WatchlistEntry, 0, len(all))
	for i := range all {
		e := all[i]
		result = append(result, &e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].AddedAt.Before(result[j].AddedAt)
	})
	return result, nil
}

func (s *watchlistStorage) AddWatch(_ context.Context, entry *models.WatchlistEntry) error {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now()
	}
	if err := s.store.db.Upsert(compositeKey(entry.Account, entry.Code), entry); err != nil {
		return fmt.Errorf("failed to add watch for '%s': %w", entry.Code, err)
	}
	s.logger.Debug().Str("account", entry.Account).Str("code", entry.Code).Msg("Watch added")
	return nil
}

func (s *watchlistStorage) RemoveWatch(_ context.Context, account, code string) error {
	err := s.store.db.Delete(compositeKey(account, code), models.WatchlistEntry{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to remove watch for '%s': %w", code, err)
	}
	s.logger.Debug().Str("account", account).Str("code", code).Msg("Watch removed")
	return nil
}

func (s *watchlistStorage) ListCodes(_ context.Context) ([]string, error) {
	var all []models.WatchlistEntry
	if err := s.store.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list watched codes: %w", err)
	}

	seen := make(map[string]struct{}, len(all))
	var codes []string
	for _, e := range all {
		if _, ok := seen[e.Code]; ok {
			continue
		}
		seen[e.Code] = struct{}{}
		codes = append(codes, e.Code)
	}
	sort.Strings(codes)
	return codes, nil
}
