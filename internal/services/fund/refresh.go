package fund

import (
	"context"
	"time"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/models"
)

// recent points fetched per code on a refresh pass; SaveHistory merges
// them into the stored series
const refreshFetchLimit = 5

const (
	statusUpdated = "updated"
	statusPending = "pending"
	statusFailed  = "failed"
)

// Trading window for intraday capture, exchange local time
const (
	windowOpenHour   = 9
	windowOpenMinute = 30
	windowCloseHour  = 15
)

// RefreshNavHistory fetches recent confirmed NAVs for the given codes and
// merges new points into storage. With no codes it covers every held or
// watched fund. Per-code failures are counted, never fatal.
func (s *Service) RefreshNavHistory(ctx context.Context, codes ...string) (*models.RefreshResult, error) {
	if len(codes) == 0 {
		var err error
		codes, err = s.trackedCodes(ctx)
		if err != nil {
			return nil, err
		}
	}

	result := &models.RefreshResult{}
	today := s.now().In(s.marketTZ)

	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		detail := s.refreshCode(ctx, code, today)
		switch detail.Status {
		case statusUpdated:
			result.Updated++
		case statusPending:
			result.Pending++
		default:
			result.Failed++
		}
		result.Details = append(result.Details, detail)
	}

	s.logger.Info().
		Int("updated", result.Updated).
		Int("pending", result.Pending).
		Int("failed", result.Failed).
		Msg("NAV history refreshed")

	return result, nil
}

// refreshCode fetches recent NAVs for one code and classifies the outcome:
// updated when today's NAV arrived, pending when the source has published
// nothing new yet, failed on fetch or store errors.
func (s *Service) refreshCode(ctx context.Context, code string, today time.Time) models.RefreshDetail {
	points, err := s.source.FetchNavHistory(ctx, code, refreshFetchLimit)
	if err != nil {
		s.logger.Warn().Str("code", code).Err(err).Msg("NAV history fetch failed")
		return models.RefreshDetail{Code: code, Status: statusFailed, Error: err.Error()}
	}
	if len(points) == 0 {
		return models.RefreshDetail{Code: code, Status: statusFailed, Error: "no data"}
	}

	if err := s.storage.HistoryStorage().SaveHistory(ctx, code, points); err != nil {
		s.logger.Error().Str("code", code).Err(err).Msg("Failed to store NAV history")
		return models.RefreshDetail{Code: code, Status: statusFailed, Error: err.Error()}
	}

	latest := points[len(points)-1].Date
	status := statusPending
	if common.SameDay(latest, today) {
		status = statusUpdated
	}
	return models.RefreshDetail{Code: code, Status: status, NavDate: latest}
}

// CaptureIntradaySnapshots stores the current live estimate for every held
// or watched fund. Outside the trading window it is a no-op.
func (s *Service) CaptureIntradaySnapshots(ctx context.Context) (int, error) {
	now := s.now().In(s.marketTZ)
	if !inTradingWindow(now) {
		s.logger.Debug().Time("now", now).Msg("Outside trading window, skipping capture")
		return 0, nil
	}

	codes, err := s.trackedCodes(ctx)
	if err != nil {
		return 0, err
	}

	captured := 0
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return captured, err
		}

		snap, err := s.source.FetchValuation(ctx, code)
		if err != nil {
			s.logger.Warn().Str("code", code).Err(err).Msg("Valuation fetch failed during capture")
			continue
		}
		if snap.LiveEstimate <= 0 {
			// money-market funds publish no estimate
			continue
		}

		capturedAt := snap.AsOfTime
		if capturedAt.IsZero() {
			capturedAt = now
		}
		snapshot := &models.IntradaySnapshot{
			Code:       code,
			CapturedAt: capturedAt,
			Estimate:   snap.LiveEstimate,
			ChangePct:  snap.EstimateChangePct,
		}
		if err := s.storage.SnapshotStorage().SaveSnapshot(ctx, snapshot); err != nil {
			s.logger.Error().Str("code", code).Err(err).Msg("Failed to store intraday snapshot")
			continue
		}

		s.seedMetadata(ctx, snap)
		captured++
	}

	s.logger.Info().Int("captured", captured).Int("codes", len(codes)).Msg("Intraday snapshots captured")
	return captured, nil
}

// inTradingWindow reports whether t falls inside exchange trading hours,
// Monday to Friday 09:30-15:00 local time.
func inTradingWindow(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= windowOpenHour*60+windowOpenMinute && minutes < windowCloseHour*60
}
