// Package storage provides the top-level StorageManager that coordinates
// the FundVal repositories over a single embedded store.
package storage

import (
	"fmt"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/interfaces"
	"github.com/tidewater/fundval/internal/storage/funddb"
)

// Manager implements interfaces.StorageManager over one BadgerHold store.
type Manager struct {
	store        *funddb.Store
	holdings     interfaces.HoldingStorage
	funds        interfaces.FundStorage
	history      interfaces.HistoryStorage
	snapshots    interfaces.SnapshotStorage
	watchlist    interfaces.WatchlistStorage
	transactions interfaces.TransactionStorage
	logger       *common.Logger
}

// NewManager creates a StorageManager rooted at the configured data path.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	store, err := funddb.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create fund store: %w", err)
	}

	logger.Info().
		Str("path", config.Storage.Path).
		Msg("Storage manager initialized")

	return &Manager{
		store:        store,
		holdings:     funddb.NewHoldingStorage(store, logger),
		funds:        funddb.NewFundStorage(store, logger),
		history:      funddb.NewHistoryStorage(store, logger),
		snapshots:    funddb.NewSnapshotStorage(store, logger),
		watchlist:    funddb.NewWatchlistStorage(store, logger),
		transactions: funddb.NewTransactionStorage(store, logger),
		logger:       logger,
	}, nil
}

func (m *Manager) HoldingStorage() interfaces.HoldingStorage {
	return m.holdings
}

func (m *Manager) FundStorage() interfaces.FundStorage {
	return m.funds
}

func (m *Manager) HistoryStorage() interfaces.HistoryStorage {
	return m.history
}

func (m *Manager) SnapshotStorage() interfaces.SnapshotStorage {
	return m.snapshots
}

func (m *Manager) WatchlistStorage() interfaces.WatchlistStorage {
	return m.watchlist
}

func (m *Manager) TransactionStorage() interfaces.TransactionStorage {
	return m.transactions
}

func (m *Manager) Close() error {
	return m.store.Close()
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
