package portfolio

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/models"
)

// GetPositions fetches live valuations for every holding of an account and
// derives the per-position views plus the portfolio summary. A failed fetch
// degrades its own row; the response always covers every holding.
func (s *Service) GetPositions(ctx context.Context, account string) (*models.PortfolioPositions, error) {
	holdings, err := s.storage.HoldingStorage().ListHoldings(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings for '%s': %w", account, err)
	}

	now := s.now()
	result := &models.PortfolioPositions{
		Account:   account,
		Summary:   models.PortfolioSummary{AsOf: now},
		Positions: []models.PositionView{},
	}
	if len(holdings) == 0 {
		return result, nil
	}

	codes := make([]string, len(holdings))
	for i, h := range holdings {
		codes[i] = h.Code
	}

	// Metadata and stored NAV dates are read in two batched queries before
	// the fan-out; the concurrent tasks only ever touch the remote source.
	funds, err := s.storage.FundStorage().LookupFunds(ctx, codes)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Fund metadata lookup failed")
		funds = map[string]*models.Fund{}
	}
	latestDates, err := s.storage.HistoryStorage().LatestDates(ctx, codes)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Latest NAV date lookup failed")
		latestDates = map[string]time.Time{}
	}

	snapshots := s.fetchValuations(ctx, codes)

	today := now.In(s.marketTZ)
	positions := make([]models.PositionView, 0, len(holdings))
	for _, h := range holdings {
		meta := funds[h.Code]
		var view models.PositionView
		if snap, ok := snapshots[h.Code]; ok {
			view = s.derivePosition(h, snap, meta)
		} else {
			view = degradedPosition(h, meta)
		}
		view.NavConfirmedToday = common.SameDay(latestDates[h.Code], today)
		positions = append(positions, view)
	}

	sortPositions(positions)

	result.Positions = positions
	result.Summary = s.summarize(positions, now)

	s.logger.Debug().
		Str("account", account).
		Int("positions", len(positions)).
		Int("degraded", countDegraded(positions)).
		Msg("Portfolio positions derived")

	return result, nil
}

// fetchValuations fans out one fetch per code under the shared concurrency
// cap and waits for every submitted task to settle. Codes whose fetch failed
// are absent from the result.
func (s *Service) fetchValuations(ctx context.Context, codes []string) map[string]*models.ValuationSnapshot {
	snapshots := make(map[string]*models.ValuationSnapshot, len(codes))
	var wg sync.WaitGroup
	var mu sync.Mutex

acquire:
	for _, code := range codes {
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			break acquire
		}

		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			defer func() { <-s.sem }()

			snap, err := s.source.FetchValuation(ctx, code)
			if err != nil {
				s.logger.Warn().Str("code", code).Err(err).Msg("Valuation fetch failed")
				return
			}
			mu.Lock()
			snapshots[code] = snap
			mu.Unlock()
		}(code)
	}

	wg.Wait()
	return snapshots
}

// derivePosition computes the valued row for one holding
func (s *Service) derivePosition(h *models.Holding, snap *models.ValuationSnapshot, meta *models.Fund) models.PositionView {
	name := snap.Name
	if name == "" && meta != nil {
		name = meta.Name
	}
	if name == "" {
		name = h.Code
	}

	view := models.PositionView{
		Code:              h.Code,
		Name:              name,
		Units:             h.Units,
		CostPerUnit:       h.CostPerUnit,
		ConfirmedNav:      snap.ConfirmedNav,
		NavDate:           snap.NavDate,
		LiveEstimate:      snap.LiveEstimate,
		EstimateChangePct: snap.EstimateChangePct,
		AsOfTime:          snap.AsOfTime,
	}
	if meta != nil {
		view.Category = meta.Category
	}

	view.EstimateValid = s.estimateValid(snap, name)

	view.CostBasis = h.CostPerUnit * h.Units
	view.ConfirmedMarketValue = snap.ConfirmedNav * h.Units
	if view.EstimateValid {
		view.LiveMarketValue = snap.LiveEstimate * h.Units
		view.DayIncome = (snap.LiveEstimate - snap.ConfirmedNav) * h.Units
	} else {
		// An invalid estimate never leaks into the live figures
		view.LiveMarketValue = view.ConfirmedMarketValue
	}

	view.ConfirmedIncome = view.ConfirmedMarketValue - view.CostBasis
	view.ProjectedTotalIncome = view.ConfirmedIncome + view.DayIncome
	if view.CostBasis > 0 {
		view.ConfirmedReturnRate = view.ConfirmedIncome / view.CostBasis * 100
		view.ProjectedTotalReturnRate = view.ProjectedTotalIncome / view.CostBasis * 100
	}

	return view
}

// estimateValid applies the live-estimate plausibility check. Implausibly
// large swings are rejected unless the fund name marks an exempt class,
// since index-linked funds legitimately move with their index.
func (s *Service) estimateValid(snap *models.ValuationSnapshot, name string) bool {
	if snap.LiveEstimate <= 0 || snap.ConfirmedNav <= 0 {
		return false
	}
	if math.Abs(snap.EstimateChangePct) < s.changeThreshold {
		return true
	}
	for _, pattern := range s.exemptPatterns {
		if strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}

// degradedPosition is the fallback row when the live fetch failed: the raw
// holding survives, every derived figure is zero.
func degradedPosition(h *models.Holding, meta *models.Fund) models.PositionView {
	view := models.PositionView{
		Code:        h.Code,
		Name:        h.Code,
		Units:       h.Units,
		CostPerUnit: h.CostPerUnit,
		Degraded:    true,
	}
	if meta != nil {
		if meta.Name != "" {
			view.Name = meta.Name
		}
		view.Category = meta.Category
	}
	return view
}

// sortPositions orders rows by confirmed market value descending,
// code ascending on ties
func sortPositions(positions []models.PositionView) {
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].ConfirmedMarketValue != positions[j].ConfirmedMarketValue {
			return positions[i].ConfirmedMarketValue > positions[j].ConfirmedMarketValue
		}
		return positions[i].Code < positions[j].Code
	})
}

// summarize folds the rows into the portfolio header. The header totals the
// projected (live) side; per-row figures keep confirmed and projected apart.
func (s *Service) summarize(positions []models.PositionView, asOf time.Time) models.PortfolioSummary {
	summary := models.PortfolioSummary{
		PositionCount: len(positions),
		AsOf:          asOf,
	}
	for _, p := range positions {
		summary.TotalLiveMarketValue += p.LiveMarketValue
		summary.TotalCostBasis += p.CostBasis
		summary.TotalDayIncome += p.DayIncome
	}
	summary.TotalProjectedIncome = summary.TotalLiveMarketValue - summary.TotalCostBasis
	if summary.TotalCostBasis > 0 {
		summary.TotalProjectedReturnRate = summary.TotalProjectedIncome / summary.TotalCostBasis * 100
	}
	return summary
}

func countDegraded(positions []models.PositionView) int {
	n := 0
	for _, p := range positions {
		if p.Degraded {
			n++
		}
	}
	return n
}
