package funddb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/interfaces"
	"github.com/tidewater/fundval/internal/models"
)

type holdingStorage struct {
	store  *Store
	logger *common.Logger
}

// NewHoldingStorage creates a new HoldingStorage backed by BadgerHold.
func NewHoldingStorage(store *Store, logger *common.Logger) *holdingStorage {
	return &holdingStorage{store: store, logger: logger}
}

func (s *holdingStorage) ListHoldings(_ context.Context, account string) ([]*models.Holding, error) {
	var all []models.Holding
	if err := s.store.db.Find(&all, badgerhold.Where("Account").Eq(account)); err != nil {
		return nil, fmt.Errorf("failed to list holdings for account '%s': %w", account, err)
	}

	var result []*models.Holding
	for i := range all {
		if all[i].Units <= 0 {
			continue
		}
		h := all[i]
		result = append(result, &h)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Code < result[j].Code
	})
	return result, nil
}

func (s *holdingStorage) GetHolding(_ context.Context, account, code string) (*models.Holding, error) {
	var holding models.Holding
	if err := s.store.db.Get(compositeKey(account, code), &holding); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("holding '%s' for account '%s': %w", code, account, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get holding '%s': %w", code, err)
	}
	return &holding, nil
}

func (s *holdingStorage) SaveHolding(_ context.Context, holding *models.Holding) error {
	holding.UpdatedAt = time.Now()
	if err := s.store.db.Upsert(compositeKey(holding.Account, holding.Code), holding); err != nil {
		return fmt.Errorf("failed to save holding '%s': %w", holding.Code, err)
	}
	s.logger.Debug().
		Str("account", holding.Account).
		Str("code", holding.Code).
		Float64("units", holding.Units).
		Msg("Holding saved")
	return nil
}

func (s *holdingStorage) DeleteHolding(_ context.Context, account, code string) error {
	err := s.store.db.Delete(compositeKey(account, code), models.Holding{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete holding '%s': %w", code, err)
	}
	s.logger.Debug().Str("account", account).Str("code", code).Msg("Holding deleted")
	return nil
}

func (s *holdingStorage) ListCodes(_ context.Context) ([]string, error) {
	var all []models.Holding
	if err := s.store.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list held codes: %w", err)
	}

	seen := make(map[string]struct{}, len(all))
	var codes []string
	for _, h := range all {
		if h.Units <= 0 {
			continue
		}
		if _, ok := seen[h.Code]; ok {
			continue
		}
		seen[h.Code] = struct{}{}
		codes = append(codes, h.Code)
	}
	sort.Strings(codes)
	return codes, nil
}
