package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/interfaces"
	"github.com/tidewater/fundval/internal/models"
)

// Residual units below this count as an emptied holding
const emptiedEpsilon = 1e-9

// RebuildHoldings replays the confirmed trade journal into a fresh holdings
// book for one account. Holdings not backed by the journal (seeded imports,
// manual edits) are dropped, so this is an explicit recovery action, not a
// startup step. Returns the number of holdings in the rebuilt book.
func RebuildHoldings(ctx context.Context, sm interfaces.StorageManager, logger *common.Logger, account string) (int, error) {
	if account == "" {
		return 0, fmt.Errorf("account is required")
	}

	txns, err := sm.TransactionStorage().ListTransactions(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("failed to load trade journal for '%s': %w", account, err)
	}

	confirmed := make([]*models.Transaction, 0, len(txns))
	for _, txn := range txns {
		if txn.Status == models.TradeConfirmed {
			confirmed = append(confirmed, txn)
		}
	}
	// Replay in trade order, oldest first
	sort.Slice(confirmed, func(i, j int) bool {
		if !confirmed[i].TradeDate.Equal(confirmed[j].TradeDate) {
			return confirmed[i].TradeDate.Before(confirmed[j].TradeDate)
		}
		return confirmed[i].CreatedAt.Before(confirmed[j].CreatedAt)
	})

	book := make(map[string]*models.Holding)
	for _, txn := range confirmed {
		switch txn.Kind {
		case models.TradeBuy:
			if txn.Units <= 0 {
				logger.Warn().Str("id", txn.ID).Msg("Rebuild: confirmed buy without settled units, skipping")
				continue
			}
			holding := book[txn.Code]
			if holding == nil {
				holding = &models.Holding{Account: account, Code: txn.Code}
				book[txn.Code] = holding
			}
			holding.CostPerUnit = (holding.CostBasis() + txn.Amount) / (holding.Units + txn.Units)
			holding.Units += txn.Units
		case models.TradeSell:
			holding := book[txn.Code]
			if holding == nil {
				logger.Warn().Str("id", txn.ID).Str("code", txn.Code).Msg("Rebuild: sell without prior buy in journal, skipping")
				continue
			}
			if txn.Units >= holding.Units-emptiedEpsilon {
				delete(book, txn.Code)
				continue
			}
			holding.Units -= txn.Units
		default:
			logger.Warn().Str("id", txn.ID).Str("kind", string(txn.Kind)).Msg("Rebuild: unknown trade kind, skipping")
		}
	}

	// Replace the stored book with the replayed one
	existing, err := sm.HoldingStorage().ListHoldings(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("failed to list holdings for '%s': %w", account, err)
	}
	for _, h := range existing {
		if err := sm.HoldingStorage().DeleteHolding(ctx, account, h.Code); err != nil {
			return 0, fmt.Errorf("failed to clear holding '%s': %w", h.Code, err)
		}
	}
	for _, h := range book {
		if err := sm.HoldingStorage().SaveHolding(ctx, h); err != nil {
			return 0, fmt.Errorf("failed to save rebuilt holding '%s': %w", h.Code, err)
		}
	}

	logger.Info().
		Str("account", account).
		Int("trades_replayed", len(confirmed)).
		Int("holdings_before", len(existing)).
		Int("holdings_after", len(book)).
		Msg("Holdings book rebuilt from trade journal")

	return len(book), nil
}
