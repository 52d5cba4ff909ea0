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

type fundStorage struct {
	store  *Store
	logger *common.Logger
}

// NewFundStorage creates a new FundStorage backed by BadgerHold.
func NewFundStorage(store *Store, logger *common.Logger) *fundStorage {
	return &fundStorage{store: store, logger: logger}
}

func (s *fundStorage) GetFund(_ context.Context, code string) (*models.Fund, error) {
	var fund models.Fund
	if err := s.store.db.Get(code, &fund); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("fund '%s': %w", code, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get fund '%s': %w", code, err)
	}
	return &fund, nil
}

func (s *fundStorage) LookupFunds(_ context.Context, codes []string) (map[string]*models.Fund, error) {
	result := make(map[string]*models.Fund, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	var all []models.Fund
	if err := s.store.db.Find(&all, badgerhold.Where("Code").In(badgerhold.Slice(codes)...)); err != nil {
		return nil, fmt.Errorf("failed to lookup funds: %w", err)
	}
	for i := range all {
		f := all[i]
		result[f.Code] = &f
	}
	return result, nil
}

func (s *fundStorage) SaveFund(_ context.Context, fund *models.Fund) error {
	fund.UpdatedAt = time.Now()
	if err := s.store.db.Upsert(fund.Code, fund); err != nil {
		return fmt.Errorf("failed to save fund '%s': %w", fund.Code, err)
	}
	s.logger.Debug().Str("code", fund.Code).Str("name", fund.Name).Msg("Fund saved")
	return nil
}

func (s *fundStorage) ListFunds(_ context.Context) ([]*models.Fund, error) {
	var all []models.Fund
	if err := s.store.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}

	result := make([]*models.Fund, 0, len(all))
	for i := range all {
		f := all[i]
		result = append(result, &f)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Code < result[j].Code
	})
	return result, nil
}
