package watchlist

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/interfaces"
	"github.com/tidewater/fundval/internal/models"
)

var tzCST = time.FixedZone("CST", 8*60*60)

// --- mocks ---

type mockWatchlistStorage struct {
	entries []*models.WatchlistEntry
	removed []string
}

func (m *mockWatchlistStorage) ListWatched(_ context.Context, account string) ([]*models.WatchlistEntry, error) {
	var out []*models.WatchlistEntry
	for _, e := range m.entries {
		if e.Account == account {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockWatchlistStorage) AddWatch(_ context.Context, entry *models.WatchlistEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockWatchlistStorage) RemoveWatch(_ context.Context, _, code string) error {
	m.removed = append(m.removed, code)
	return nil
}

func (m *mockWatchlistStorage) ListCodes(_ context.Context) ([]string, error) { return nil, nil }

type mockFundStorage struct {
	funds map[string]*models.Fund
}

func (m *mockFundStorage) GetFund(_ context.Context, code string) (*models.Fund, error) {
	if f, ok := m.funds[code]; ok {
		return f, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *mockFundStorage) LookupFunds(_ context.Context, codes []string) (map[string]*models.Fund, error) {
	out := make(map[string]*models.Fund)
	for _, code := range codes {
		if f, ok := m.funds[code]; ok {
			out[code] = f
		}
	}
	return out, nil
}

func (m *mockFundStorage) SaveFund(_ context.Context, _ *models.Fund) error    { return nil }
func (m *mockFundStorage) ListFunds(_ context.Context) ([]*models.Fund, error) { return nil, nil }

type mockStorageManager struct {
	watchlist *mockWatchlistStorage
	funds     *mockFundStorage
}

func (m *mockStorageManager) HoldingStorage() interfaces.HoldingStorage         { return nil }
func (m *mockStorageManager) FundStorage() interfaces.FundStorage               { return m.funds }
func (m *mockStorageManager) HistoryStorage() interfaces.HistoryStorage         { return nil }
func (m *mockStorageManager) SnapshotStorage() interfaces.SnapshotStorage       { return nil }
func (m *mockStorageManager) WatchlistStorage() interfaces.WatchlistStorage     { return m.watchlist }
func (m *mockStorageManager) TransactionStorage() interfaces.TransactionStorage { return nil }
func (m *mockStorageManager) Close() error                                      { return nil }

type mockSource struct {
	fetchFn func(ctx context.Context, code string) (*models.ValuationSnapshot, error)
}

func (m *mockSource) FetchValuation(ctx context.Context, code string) (*models.ValuationSnapshot, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, code)
	}
	return &models.ValuationSnapshot{Code: code, ConfirmedNav: 1.0, LiveEstimate: 1.0}, nil
}

func (m *mockSource) FetchNavHistory(_ context.Context, _ string, _ int) ([]models.HistoryPoint, error) {
	return nil, nil
}

// --- tests ---

func newTestStorage() *mockStorageManager {
	return &mockStorageManager{
		watchlist: &mockWatchlistStorage{},
		funds:     &mockFundStorage{funds: map[string]*models.Fund{}},
	}
}

func TestWatch(t *testing.T) {
	storage := newTestStorage()
	svc := NewService(storage, &mockSource{}, common.NewSilentLogger())
	svc.now = func() time.Time { return time.Date(2024, 3, 27, 10, 0, 0, 0, tzCST) }

	if err := svc.Watch(context.Background(), "default", "110022"); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if len(storage.watchlist.entries) != 1 {
		t.Fatalf("stored %d entries", len(storage.watchlist.entries))
	}
	entry := storage.watchlist.entries[0]
	if entry.Account != "default" || entry.Code != "110022" {
		t.Errorf("entry = %+v", entry)
	}
	if !entry.AddedAt.Equal(svc.now()) {
		t.Errorf("added at = %v", entry.AddedAt)
	}

	if err := svc.Watch(context.Background(), "", "110022"); err == nil {
		t.Error("expected rejection without account")
	}
	if err := svc.Watch(context.Background(), "default", ""); err == nil {
		t.Error("expected rejection without code")
	}
}

func TestUnwatch(t *testing.T) {
	storage := newTestStorage()
	svc := NewService(storage, &mockSource{}, common.NewSilentLogger())

	if err := svc.Unwatch(context.Background(), "default", "110022"); err != nil {
		t.Fatalf("Unwatch failed: %v", err)
	}
	if len(storage.watchlist.removed) != 1 || storage.watchlist.removed[0] != "110022" {
		t.Errorf("removed = %v", storage.watchlist.removed)
	}
}

func TestGetWatchlist_EnrichesWithLiveAndMetadata(t *testing.T) {
	storage := newTestStorage()
	added := time.Date(2024, 3, 20, 9, 0, 0, 0, tzCST)
	storage.watchlist.entries = []*models.WatchlistEntry{
		{Account: "default", Code: "110022", AddedAt: added},
		{Account: "default", Code: "000001", AddedAt: added.Add(time.Hour)},
		{Account: "other", Code: "161725", AddedAt: added},
	}
	storage.funds.funds["000001"] = &models.Fund{Code: "000001", Name: "华夏成长混合", Category: "混合型"}

	source := &mockSource{
		fetchFn: func(_ context.Context, code string) (*models.ValuationSnapshot, error) {
			if code == "000001" {
				return nil, fmt.Errorf("connection refused")
			}
			return &models.ValuationSnapshot{
				Code: code, Name: "易方达消费行业股票",
				ConfirmedNav: 3.14, LiveEstimate: 3.18, EstimateChangePct: 1.27,
			}, nil
		},
	}

	svc := NewService(storage, source, common.NewSilentLogger())
	watched, err := svc.GetWatchlist(context.Background(), "default")
	if err != nil {
		t.Fatalf("GetWatchlist failed: %v", err)
	}
	if len(watched) != 2 {
		t.Fatalf("expected the account's 2 entries, got %d", len(watched))
	}

	// Live fetch succeeded: name comes from the source
	first := watched[0]
	if first.Code != "110022" || first.Name != "易方达消费行业股票" {
		t.Errorf("first = %+v", first)
	}
	if first.Live == nil || first.Live.LiveEstimate != 3.18 {
		t.Errorf("first live = %+v", first.Live)
	}
	if !first.AddedAt.Equal(added) {
		t.Errorf("added at = %v", first.AddedAt)
	}

	// Live fetch failed: metadata fills the gaps, Live stays nil
	second := watched[1]
	if second.Live != nil {
		t.Error("expected nil live after fetch failure")
	}
	if second.Name != "华夏成长混合" || second.Category != "混合型" {
		t.Errorf("second = %+v", second)
	}
}

func TestGetWatchlist_UnknownFundFallsBackToCode(t *testing.T) {
	storage := newTestStorage()
	storage.watchlist.entries = []*models.WatchlistEntry{
		{Account: "default", Code: "999999"},
	}
	source := &mockSource{
		fetchFn: func(_ context.Context, _ string) (*models.ValuationSnapshot, error) {
			return nil, fmt.Errorf("no such fund")
		},
	}

	svc := NewService(storage, source, common.NewSilentLogger())
	watched, err := svc.GetWatchlist(context.Background(), "default")
	if err != nil {
		t.Fatalf("GetWatchlist failed: %v", err)
	}
	if len(watched) != 1 || watched[0].Name != "999999" {
		t.Errorf("watched = %+v", watched)
	}
}

func TestGetWatchlist_Empty(t *testing.T) {
	svc := NewService(newTestStorage(), &mockSource{}, common.NewSilentLogger())
	watched, err := svc.GetWatchlist(context.Background(), "default")
	if err != nil {
		t.Fatalf("GetWatchlist failed: %v", err)
	}
	if len(watched) != 0 {
		t.Errorf("expected empty list, got %d", len(watched))
	}
}
