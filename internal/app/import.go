package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/interfaces"
	"github.com/tidewater/fundval/internal/models"
)

type importHoldingsFile struct {
	Holdings []importHolding `json:"holdings"`
}

type importHolding struct {
	Account     string  `json:"account"`
	Code        string  `json:"code"`
	CostPerUnit float64 `json:"cost_per_unit"`
	Units       float64 `json:"units"`
}

// ImportHoldingsFromFile reads a holdings JSON file and seeds the holdings
// book. Existing holdings (by account and code) are skipped. Rows without
// an account fall under defaultAccount.
// Returns (imported count, skipped count, error).
func ImportHoldingsFromFile(ctx context.Context, holdings interfaces.HoldingStorage, logger *common.Logger, filePath, defaultAccount string) (int, int, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read holdings file %s: %w", filePath, err)
	}

	var file importHoldingsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, 0, fmt.Errorf("failed to parse holdings file %s: %w", filePath, err)
	}

	imported, skipped := 0, 0
	for _, h := range file.Holdings {
		if h.Code == "" || h.Units < 0 || h.CostPerUnit < 0 {
			skipped++
			continue
		}
		account := h.Account
		if account == "" {
			account = defaultAccount
		}
		// Skip if exists
		if _, err := holdings.GetHolding(ctx, account, h.Code); err == nil {
			skipped++
			continue
		}
		holding := &models.Holding{
			Account:     account,
			Code:        h.Code,
			CostPerUnit: h.CostPerUnit,
			Units:       h.Units,
		}
		if err := holdings.SaveHolding(ctx, holding); err != nil {
			logger.Warn().Err(err).Str("code", h.Code).Msg("Failed to import holding")
			skipped++
			continue
		}
		logger.Info().Str("account", account).Str("code", h.Code).Msg("Holding imported")
		imported++
	}

	return imported, skipped, nil
}
