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

type transactionStorage struct {
	store  *Store
	logger *common.Logger
}

// NewTransactionStorage creates a new TransactionStorage backed by BadgerHold.
func NewTransactionStorage(store *Store, logger *common.Logger) *transactionStorage {
	return &transactionStorage{store: store, logger: logger}
}

func (s *transactionStorage) SaveTransaction(_ context.Context, txn *models.Transaction) error {
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	if err := s.store.db.Upsert(txn.ID, txn); err != nil {
		return fmt.Errorf("failed to save transaction '%s': %w", txn.ID, err)
	}
	s.logger.Debug().
		Str("id", txn.ID).
		Str("code", txn.Code).
		Str("kind", string(txn.Kind)).
		Str("status", string(txn.Status)).
		Msg("Transaction saved")
	return nil
}

func (s *transactionStorage) ListTransactions(_ context.Context, account string) ([]*models.Transaction, error) {
	var all []models.Transaction
	if err := s.store.db.Find(&all, badgerhold.Where("Account").Eq(account)); err != nil {
		return nil, fmt.Errorf("failed to list transactions for account '%s': %w", account, err)
	}

	result := make([]*models.Transaction, 0, len(all))
	for i := range all {
		t := all[i]
		result = append(result, &t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *transactionStorage) PendingTransactions(_ context.Context, account string) ([]*models.Transaction, error) {
	var all []models.Transaction
	query := badgerhold.Where("Status").Eq(models.TradePending)
	if account != "" {
		query = badgerhold.Where("Account").Eq(account).And("Status").Eq(models.TradePending)
	}
	if err := s.store.db.Find(&all, query); err != nil {
		return nil, fmt.Errorf("failed to list pending transactions for account '%s': %w", account, err)
	}

	result := make([]*models.Transaction, 0, len(all))
	for i := range all {
		t := all[i]
		result = append(result, &t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
