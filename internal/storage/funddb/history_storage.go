package funddb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/interfaces"
	"github.com/tidewater/fundval/internal/models"
)

// dateKey is the merge granularity for NAV points: one point per calendar date.
const dateKey = "2006-01-02"

type historyStorage struct {
	store  *Store
	logger *common.Logger
}

// NewHistoryStorage creates a new HistoryStorage backed by BadgerHold.
// Each fund's confirmed NAV series is stored as a single document.
func NewHistoryStorage(store *Store, logger *common.Logger) *historyStorage {
	return &historyStorage{store: store, logger: logger}
}

func (s *historyStorage) GetHistory(_ context.Context, code string, limit int) ([]models.HistoryPoint, error) {
	var hist models.NavHistory
	if err := s.store.db.Get(code, &hist); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get history for '%s': %w", code, err)
	}

	points := hist.Points
	if limit > 0 && len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points, nil
}

func (s *historyStorage) LatestPoint(_ context.Context, code string) (*models.HistoryPoint, error) {
	var hist models.NavHistory
	if err := s.store.db.Get(code, &hist); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("history for '%s': %w", code, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get history for '%s': %w", code, err)
	}
	if len(hist.Points) == 0 {
		return nil, fmt.Errorf("history for '%s': %w", code, interfaces.ErrNotFound)
	}
	p := hist.Points[len(hist.Points)-1]
	return &p, nil
}

func (s *historyStorage) LatestDates(_ context.Context, codes []string) (map[string]time.Time, error) {
	result := make(map[string]time.Time, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	var all []models.NavHistory
	if err := s.store.db.Find(&all, badgerhold.Where("Code").In(badgerhold.Slice(codes)...)); err != nil {
		return nil, fmt.Errorf("failed to lookup latest NAV dates: %w", err)
	}
	for _, hist := range all {
		if len(hist.Points) == 0 {
			continue
		}
		result[hist.Code] = hist.Points[len(hist.Points)-1].Date
	}
	return result, nil
}

func (s *historyStorage) FirstPointAfter(_ context.Context, code string, after time.Time) (*models.HistoryPoint, error) {
	var hist models.NavHistory
	if err := s.store.db.Get(code, &hist); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("history for '%s': %w", code, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get history for '%s': %w", code, err)
	}

	// Points are ascending, so the first match wins
	for i := range hist.Points {
		if hist.Points[i].Date.After(after) {
			p := hist.Points[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("no NAV after %s for '%s': %w", after.Format(dateKey), code, interfaces.ErrNotFound)
}

func (s *historyStorage) SaveHistory(_ context.Context, code string, points []models.HistoryPoint) error {
	if len(points) == 0 {
		return nil
	}

	var hist models.NavHistory
	if err := s.store.db.Get(code, &hist); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to load history for '%s': %w", code, err)
	}

	// Merge by calendar date, new points overwriting stored ones
	merged := make(map[string]models.HistoryPoint, len(hist.Points)+len(points))
	for _, p := range hist.Points {
		merged[p.Date.Format(dateKey)] = p
	}
	for _, p := range points {
		merged[p.Date.Format(dateKey)] = p
	}

	hist.Code = code
	hist.UpdatedAt = time.Now()
	hist.Points = make([]models.HistoryPoint, 0, len(merged))
	for _, p := range merged {
		hist.Points = append(hist.Points, p)
	}
	sort.Slice(hist.Points, func(i, j int) bool {
		return hist.Points[i].Date.Before(hist.Points[j].Date)
	})

	if err := s.store.db.Upsert(code, &hist); err != nil {
		return fmt.Errorf("failed to save history for '%s': %w", code, err)
	}
	s.logger.Debug().
		Str("code", code).
		Int("points", len(hist.Points)).
		Msg("NAV history saved")
	return nil
}
