// Package interfaces defines service contracts for FundVal
package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/tidewater/fundval/internal/models"
)

// ErrNotFound is returned by repositories when no record matches.
// Callers test with errors.Is.
var ErrNotFound = errors.New("not found")

// StorageManager coordinates all storage repositories
type StorageManager interface {
	HoldingStorage() HoldingStorage
	FundStorage() FundStorage
	HistoryStorage() HistoryStorage
	SnapshotStorage() SnapshotStorage
	WatchlistStorage() WatchlistStorage
	TransactionStorage() TransactionStorage

	// Lifecycle
	Close() error
}

// HoldingStorage persists the holdings book per account
type HoldingStorage interface {
	// ListHoldings returns holdings with Units > 0, ordered by code
	ListHoldings(ctx context.Context, account string) ([]*models.Holding, error)

	// GetHolding retrieves a holding by account and code
	GetHolding(ctx context.Context, account, code string) (*models.Holding, error)

	// SaveHolding upserts a holding keyed by account and code
	SaveHolding(ctx context.Context, holding *models.Holding) error

	// DeleteHolding removes a holding
	DeleteHolding(ctx context.Context, account, code string) error

	// ListCodes returns distinct held codes across all accounts
	ListCodes(ctx context.Context) ([]string, error)
}

// FundStorage persists fund metadata
type FundStorage interface {
	// GetFund retrieves metadata for a code
	GetFund(ctx context.Context, code string) (*models.Fund, error)

	// LookupFunds retrieves metadata for a set of codes in one query.
	// Unknown codes are simply absent from the result.
	LookupFunds(ctx context.Context, codes []string) (map[string]*models.Fund, error)

	// SaveFund upserts fund metadata
	SaveFund(ctx context.Context, fund *models.Fund) error

	// ListFunds returns all known funds ordered by code
	ListFunds(ctx context.Context) ([]*models.Fund, error)
}

// HistoryStorage persists confirmed NAV history per fund
type HistoryStorage interface {
	// GetHistory returns up to limit most recent points, ascending by date
	GetHistory(ctx context.Context, code string, limit int) ([]models.HistoryPoint, error)

	// LatestPoint returns the most recent point for a code
	LatestPoint(ctx context.Context, code string) (*models.HistoryPoint, error)

	// LatestDates returns the most recent NAV date per code in one query.
	// Codes with no history are absent from the result.
	LatestDates(ctx context.Context, codes []string) (map[string]time.Time, error)

	// FirstPointAfter returns the earliest point strictly after the given date
	FirstPointAfter(ctx context.Context, code string, after time.Time) (*models.HistoryPoint, error)

	// SaveHistory upserts points keyed by code and date
	SaveHistory(ctx context.Context, code string, points []models.HistoryPoint) error
}

// SnapshotStorage persists intraday estimate captures
type SnapshotStorage interface {
	// SaveSnapshot appends an intraday capture
	SaveSnapshot(ctx context.Context, snapshot *models.IntradaySnapshot) error

	// ListSnapshots returns captures for a fund on a calendar day, ascending
	ListSnapshots(ctx context.Context, code string, day time.Time) ([]models.IntradaySnapshot, error)
}

// WatchlistStorage persists watchlist entries per account
type WatchlistStorage interface {
	// ListWatched returns entries for an account, oldest first
	ListWatched(ctx context.Context, account string) ([]*models.WatchlistEntry, error)

	// AddWatch upserts an entry keyed by account and code
	AddWatch(ctx context.Context, entry *models.WatchlistEntry) error

	// RemoveWatch deletes an entry
	RemoveWatch(ctx context.Context, account, code string) error

	// ListCodes returns distinct watched codes across all accounts
	ListCodes(ctx context.Context) ([]string, error)
}

// TransactionStorage persists trade transactions
type TransactionStorage interface {
	// SaveTransaction upserts a transaction by ID
	SaveTransaction(ctx context.Context, txn *models.Transaction) error

	// ListTransactions returns transactions for an account, newest first
	ListTransactions(ctx context.Context, account string) ([]*models.Transaction, error)

	// PendingTransactions returns unconfirmed transactions, oldest first.
	// An empty account sweeps every account.
	PendingTransactions(ctx context.Context, account string) ([]*models.Transaction, error)
}
