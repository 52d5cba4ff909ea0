package funddb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/models"
)

type snapshotStorage struct {
	store  *Store
	logger *common.Logger
}

// NewSnapshotStorage creates a new SnapshotStorage backed by BadgerHold.
func NewSnapshotStorage(store *Store, logger *common.Logger) *snapshotStorage {
	return &snapshotStorage{store: store, logger: logger}
}

func (s *snapshotStorage) SaveSnapshot(_ context.Context, snapshot *models.IntradaySnapshot) error {
	key := compositeKey(snapshot.Code, snapshot.CapturedAt.Format(time.RFC3339))
	if err := s.store.db.Upsert(key, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot for '%s': %w", snapshot.Code, err)
	}
	return nil
}

func (s *snapshotStorage) ListSnapshots(_ context.Context, code string, day time.Time) ([]models.IntradaySnapshot, error) {
	var all []models.IntradaySnapshot
	if err := s.store.db.Find(&all, badgerhold.Where("Code").Eq(code)); err != nil {
		return nil, fmt.Errorf("failed to list snapshots for '%s': %w", code, err)
	}

	var result []models.IntradaySnapshot
	for _, snap := range all {
		if common.SameDay(snap.CapturedAt, day) {
			result = append(result, snap)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CapturedAt.Before(result[j].CapturedAt)
	})
	return result, nil
}
