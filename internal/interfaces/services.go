// Package interfaces defines service contracts for FundVal
package interfaces

import (
	"context"
	"time"

	"github.com/tidewater/fundval/internal/models"
)

// PortfolioService values holdings and manages the holdings book
type PortfolioService interface {
	// GetPositions fetches live valuations for every holding of an account
	// and derives the per-position views plus the portfolio summary
	GetPositions(ctx context.Context, account string) (*models.PortfolioPositions, error)

	// ListHoldings returns the stored holdings for an account
	ListHoldings(ctx context.Context, account string) ([]*models.Holding, error)

	// GetHolding retrieves a single holding by code
	GetHolding(ctx context.Context, account, code string) (*models.Holding, error)

	// SaveHolding creates or replaces a holding
	SaveHolding(ctx context.Context, holding *models.Holding) error

	// DeleteHolding removes a holding by code
	DeleteHolding(ctx context.Context, account, code string) error
}

// RiskService computes risk indicators from stored NAV history
type RiskService interface {
	// GetRiskReport computes indicators over a trailing window and
	// attaches the consistency verdict
	GetRiskReport(ctx context.Context, code string, windowDays int) (*models.RiskReport, error)
}

// FundService manages fund metadata, NAV history and intraday estimates
type FundService interface {
	// GetFundDetail returns metadata with the latest stored NAV and
	// the current live estimate
	GetFundDetail(ctx context.Context, code string) (*models.FundDetail, error)

	// GetHistory returns stored NAV history ascending by date,
	// limited to the most recent days points
	GetHistory(ctx context.Context, code string, days int) ([]models.HistoryPoint, error)

	// RefreshNavHistory fetches recent history for the given codes and
	// stores new points. With no codes it covers every held or watched fund.
	RefreshNavHistory(ctx context.Context, codes ...string) (*models.RefreshResult, error)

	// CaptureIntradaySnapshots stores live estimates for held and watched
	// funds. No-op outside the trading window; returns the capture count.
	CaptureIntradaySnapshots(ctx context.Context) (int, error)

	// GetIntraday returns captured estimates for a fund on a given day
	GetIntraday(ctx context.Context, code string, day time.Time) ([]models.IntradaySnapshot, error)

	// ListFunds returns all known fund metadata
	ListFunds(ctx context.Context) ([]*models.Fund, error)
}

// TradeService records buy/sell orders and settles them against posted NAVs
type TradeService interface {
	// PlaceBuy records a pending buy for a cash amount
	PlaceBuy(ctx context.Context, account, code string, amount float64, tradeDate time.Time) (*models.Transaction, error)

	// PlaceSell records a pending sell for a unit count
	PlaceSell(ctx context.Context, account, code string, units float64, tradeDate time.Time) (*models.Transaction, error)

	// ConfirmPending settles pending transactions whose trade date has a
	// posted NAV after it, updating holdings at weighted-average cost.
	// An empty account sweeps every account. Returns the number confirmed.
	ConfirmPending(ctx context.Context, account string) (int, error)

	// ListTransactions returns transactions for an account, newest first
	ListTransactions(ctx context.Context, account string) ([]*models.Transaction, error)
}

// WatchlistService tracks funds the account follows without holding
type WatchlistService interface {
	// Watch adds a fund to the account's watchlist
	Watch(ctx context.Context, account, code string) error

	// Unwatch removes a fund from the account's watchlist
	Unwatch(ctx context.Context, account, code string) error

	// GetWatchlist returns watched funds enriched with live valuations
	GetWatchlist(ctx context.Context, account string) ([]*models.WatchedFund, error)
}
