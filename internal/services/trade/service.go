// Package trade records buy and sell orders and settles them at T+1
// against the first NAV posted after the trade date.
package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/interfaces"
	"github.com/tidewater/fundval/internal/models"
)

// Residual units below this count as an emptied holding.
const emptiedEpsilon = 1e-9

// Service implements interfaces.TradeService.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger

	now func() time.Time
}

// NewService creates a new trade service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// PlaceBuy records a pending buy for a cash amount. Unit conversion waits
// for the next posted NAV.
func (s *Service) PlaceBuy(ctx context.Context, account, code string, amount float64, tradeDate time.Time) (*models.Transaction, error) {
	if account == "" || code == "" {
		return nil, fmt.Errorf("trade requires account and code")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("buy amount must be positive")
	}
	if tradeDate.IsZero() {
		tradeDate = s.now()
	}

	txn := &models.Transaction{
		ID:        fmt.Sprintf("txn_%s", uuid.New().String()[:8]),
		Account:   account,
		Code:      code,
		Kind:      models.TradeBuy,
		Amount:    amount,
		Status:    models.TradePending,
		TradeDate: tradeDate,
		CreatedAt: s.now(),
	}
	if err := s.storage.TransactionStorage().SaveTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record buy order: %w", err)
	}

	s.logger.Info().
		Str("id", txn.ID).
		Str("account", account).
		Str("code", code).
		Float64("amount", amount).
		Msg("Buy order placed")
	return txn, nil
}

// PlaceSell records a pending sell for a unit count. Rejects selling more
// units than the account holds.
func (s *Service) PlaceSell(ctx context.Context, account, code string, units float64, tradeDate time.Time) (*models.Transaction, error) {
	if account == "" || code == "" {
		return nil, fmt.Errorf("trade requires account and code")
	}
	if units <= 0 {
		return nil, fmt.Errorf("sell units must be positive")
	}
	if tradeDate.IsZero() {
		tradeDate = s.now()
	}

	holding, err := s.storage.HoldingStorage().GetHolding(ctx, account, code)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("no holding of '%s' to sell", code)
		}
		return nil, fmt.Errorf("failed to check holding for '%s': %w", code, err)
	}
	if units > holding.Units {
		return nil, fmt.Errorf("cannot sell %.4f units of '%s', only %.4f held", units, code, holding.Units)
	}

	txn := &models.Transaction{
		ID:        fmt.Sprintf("txn_%s", uuid.New().String()[:8]),
		Account:   account,
		Code:      code,
		Kind:      models.TradeSell,
		Units:     units,
		Status:    models.TradePending,
		TradeDate: tradeDate,
		CreatedAt: s.now(),
	}
	if err := s.storage.TransactionStorage().SaveTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record sell order: %w", err)
	}

	s.logger.Info().
		Str("id", txn.ID).
		Str("account", account).
		Str("code", code).
		Float64("units", units).
		Msg("Sell order placed")
	return txn, nil
}

// ConfirmPending settles pending transactions whose trade date has a NAV
// posted after it. Buys convert amount into units at that NAV and merge
// into the holding at weighted-average cost; sells reduce units and delete
// the holding when emptied. An empty account sweeps every account.
func (s *Service) ConfirmPending(ctx context.Context, account string) (int, error) {
	pending, err := s.storage.TransactionStorage().PendingTransactions(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending transactions: %w", err)
	}

	confirmed := 0
	for _, txn := range pending {
		if ctx.Err() != nil {
			return confirmed, ctx.Err()
		}

		point, err := s.storage.HistoryStorage().FirstPointAfter(ctx, txn.Code, txn.TradeDate)
		if err != nil {
			if !errors.Is(err, interfaces.ErrNotFound) {
				s.logger.Warn().Err(err).Str("id", txn.ID).Msg("Failed to look up settlement NAV")
			}
			// No NAV posted yet; stays pending
			continue
		}
		if point.Nav <= 0 {
			s.logger.Warn().Str("id", txn.ID).Float64("nav", point.Nav).Msg("Skipping settlement at non-positive NAV")
			continue
		}

		switch txn.Kind {
		case models.TradeBuy:
			err = s.settleBuy(ctx, txn, point.Nav)
		case models.TradeSell:
			err = s.settleSell(ctx, txn, point.Nav)
		default:
			s.logger.Warn().Str("id", txn.ID).Str("kind", string(txn.Kind)).Msg("Skipping transaction of unknown kind")
			continue
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("id", txn.ID).Msg("Failed to settle transaction")
			continue
		}

		txn.Nav = point.Nav
		txn.Status = models.TradeConfirmed
		txn.ConfirmedAt = s.now()
		if err := s.storage.TransactionStorage().SaveTransaction(ctx, txn); err != nil {
			s.logger.Error().Err(err).Str("id", txn.ID).Msg("Holding updated but confirmation not recorded")
			continue
		}
		confirmed++
	}

	if confirmed > 0 {
		s.logger.Info().Int("confirmed", confirmed).Int("pending", len(pending)-confirmed).Msg("Settled pending transactions")
	}
	return confirmed, nil
}

// settleBuy converts the buy amount into units at the posted NAV and merges
// them into the holding at weighted-average cost.
func (s *Service) settleBuy(ctx context.Context, txn *models.Transaction, nav float64) error {
	units := txn.Amount / nav

	holdings := s.storage.HoldingStorage()
	holding, err := holdings.GetHolding(ctx, txn.Account, txn.Code)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			return fmt.Errorf("failed to load holding: %w", err)
		}
		holding = &models.Holding{Account: txn.Account, Code: txn.Code}
	}

	totalUnits := holding.Units + units
	totalCost := holding.CostBasis() + txn.Amount
	holding.CostPerUnit = totalCost / totalUnits
	holding.Units = totalUnits
	if err := holdings.SaveHolding(ctx, holding); err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	txn.Units = units
	return nil
}

// settleSell reduces the holding by the sold units, deleting it when
// emptied, and records the cash proceeds on the transaction.
func (s *Service) settleSell(ctx context.Context, txn *models.Transaction, nav float64) error {
	holdings := s.storage.HoldingStorage()
	holding, err := holdings.GetHolding(ctx, txn.Account, txn.Code)
	if err != nil {
		// Validated at placement; a missing holding here means the book
		// changed underneath the pending sell
		return fmt.Errorf("failed to load holding: %w", err)
	}
	if txn.Units > holding.Units {
		return fmt.Errorf("pending sell of %.4f units exceeds %.4f held", txn.Units, holding.Units)
	}

	remaining := holding.Units - txn.Units
	if remaining <= emptiedEpsilon {
		if err := holdings.DeleteHolding(ctx, txn.Account, txn.Code); err != nil {
			return fmt.Errorf("failed to delete emptied holding: %w", err)
		}
	} else {
		holding.Units = remaining
		if err := holdings.SaveHolding(ctx, holding); err != nil {
			return fmt.Errorf("failed to update holding: %w", err)
		}
	}

	txn.Amount = txn.Units * nav
	return nil
}

// ListTransactions returns transactions for an account, newest first.
func (s *Service) ListTransactions(ctx context.Context, account string) ([]*models.Transaction, error) {
	txns, err := s.storage.TransactionStorage().ListTransactions(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for '%s': %w", account, err)
	}
	return txns, nil
}

var _ interfaces.TradeService = (*Service)(nil)
