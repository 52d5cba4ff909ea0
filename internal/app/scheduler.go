package app

import (
	"context"
	"time"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/interfaces"
	"github.com/tidewater/fundval/internal/metrics"
)

// StartSchedulers launches the background capture and refresh loops.
// No-op when the scheduler section is disabled.
func (a *App) StartSchedulers() {
	if !a.Config.Scheduler.Enabled {
		a.Logger.Info().Msg("Schedulers disabled by configuration")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel

	go startSnapshotScheduler(ctx, a.FundService, a.Logger, a.Config.Scheduler.GetSnapshotInterval())
	go startRefreshScheduler(ctx, a.FundService, a.TradeService, a.Logger, a.Config.Scheduler.GetRefreshInterval())
}

// startSnapshotScheduler captures intraday estimates on a fixed interval.
// The fund service skips captures outside the trading window, so the ticker
// runs around the clock.
func startSnapshotScheduler(ctx context.Context, fundService interfaces.FundService, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", interval).Msg("Snapshot scheduler: started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Snapshot scheduler: stopped")
			return
		case <-ticker.C:
			captureSnapshots(ctx, fundService, logger)
		}
	}
}

func captureSnapshots(ctx context.Context, fundService interfaces.FundService, logger *common.Logger) {
	start := time.Now()

	captured, err := fundService.CaptureIntradaySnapshots(ctx)
	if err != nil {
		metrics.SchedulerRuns.WithLabelValues("snapshot", "error").Inc()
		logger.Warn().Err(err).Msg("Snapshot capture: failed")
		return
	}
	metrics.SchedulerRuns.WithLabelValues("snapshot", "ok").Inc()

	if captured > 0 {
		logger.Info().
			Int("captured", captured).
			Dur("elapsed", time.Since(start)).
			Msg("Snapshot capture: complete")
	}
}

// startRefreshScheduler refreshes confirmed NAV history and settles pending
// trades on a fixed interval.
func startRefreshScheduler(ctx context.Context, fundService interfaces.FundService, tradeService interfaces.TradeService, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", interval).Msg("Refresh scheduler: started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Refresh scheduler: stopped")
			return
		case <-ticker.C:
			refreshNavs(ctx, fundService, tradeService, logger)
		}
	}
}

func refreshNavs(ctx context.Context, fundService interfaces.FundService, tradeService interfaces.TradeService, logger *common.Logger) {
	start := time.Now()

	result, err := fundService.RefreshNavHistory(ctx)
	if err != nil {
		metrics.SchedulerRuns.WithLabelValues("refresh", "error").Inc()
		logger.Warn().Err(err).Msg("NAV refresh: failed")
		return
	}
	metrics.SchedulerRuns.WithLabelValues("refresh", "ok").Inc()

	// Newly posted NAVs may settle pending trades
	confirmed, err := tradeService.ConfirmPending(ctx, "")
	if err != nil {
		logger.Warn().Err(err).Msg("NAV refresh: trade confirmation failed")
	}

	logger.Info().
		Int("updated", result.Updated).
		Int("pending", result.Pending).
		Int("failed", result.Failed).
		Int("trades_confirmed", confirmed).
		Dur("elapsed", time.Since(start)).
		Msg("NAV refresh: complete")
}
