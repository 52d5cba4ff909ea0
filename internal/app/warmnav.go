package app

import (
	"context"
	"os"
	"time"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/interfaces"
)

// warmNavHistory refreshes NAV history for held and watched funds on startup
// so the first positions query already works from posted data.
func warmNavHistory(ctx context.Context, fundService interfaces.FundService, logger *common.Logger) {
	// Check env var override
	if os.Getenv("FUNDVAL_WARM_NAV") == "off" {
		logger.Info().Msg("Nav warm: disabled via FUNDVAL_WARM_NAV=off")
		return
	}

	start := time.Now()

	result, err := fundService.RefreshNavHistory(ctx)
	if err != nil {
		// Expected when running offline; the refresh scheduler retries later
		logger.Warn().Err(err).Msg("Nav warm: refresh failed")
		return
	}

	if result.Updated == 0 && result.Pending == 0 && result.Failed == 0 {
		logger.Info().Msg("Nav warm: no funds to refresh")
		return
	}

	logger.Info().
		Int("updated", result.Updated).
		Int("pending", result.Pending).
		Int("failed", result.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("Nav warm: complete")
}
