package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tidewater/fundval/internal/app"
	"github.com/tidewater/fundval/internal/interfaces"
	"github.com/tidewater/fundval/internal/models"
)

var tzCST = time.FixedZone("CST", 8*60*60)

// mockFundService implements interfaces.FundService for testing.
type mockFundService struct {
	getFundDetail            func(ctx context.Context, code string) (*models.FundDetail, error)
	getHistory               func(ctx context.Context, code string, days int) ([]models.HistoryPoint, error)
	refreshNavHistory        func(ctx context.Context, codes ...string) (*models.RefreshResult, error)
	captureIntradaySnapshots func(ctx context.Context) (int, error)
	getIntraday              func(ctx context.Context, code string, day time.Time) ([]models.IntradaySnapshot, error)
	listFunds                func(ctx context.Context) ([]*models.Fund, error)
}

func (m *mockFundService) GetFundDetail(ctx context.Context, code string) (*models.FundDetail, error) {
	if m.getFundDetail != nil {
		return m.getFundDetail(ctx, code)
	}
	return &models.FundDetail{Fund: models.Fund{Code: code}}, nil
}

func (m *mockFundService) GetHistory(ctx context.Context, code string, days int) ([]models.HistoryPoint, error) {
	if m.getHistory != nil {
		return m.getHistory(ctx, code, days)
	}
	return nil, nil
}

func (m *mockFundService) RefreshNavHistory(ctx context.Context, codes ...string) (*models.RefreshResult, error) {
	if m.refreshNavHistory != nil {
		return m.refreshNavHistory(ctx, codes...)
	}
	return &models.RefreshResult{}, nil
}

func (m *mockFundService) CaptureIntradaySnapshots(ctx context.Context) (int, error) {
	if m.captureIntradaySnapshots != nil {
		return m.captureIntradaySnapshots(ctx)
	}
	return 0, nil
}

func (m *mockFundService) GetIntraday(ctx context.Context, code string, day time.Time) ([]models.IntradaySnapshot, error) {
	if m.getIntraday != nil {
		return m.getIntraday(ctx, code, day)
	}
	return nil, nil
}

func (m *mockFundService) ListFunds(ctx context.Context) ([]*models.Fund, error) {
	if m.listFunds != nil {
		return m.listFunds(ctx)
	}
	return nil, nil
}

// mockRiskService implements interfaces.RiskService for testing.
type mockRiskService struct {
	getRiskReport func(ctx context.Context, code string, windowDays int) (*models.RiskReport, error)
}

func (m *mockRiskService) GetRiskReport(ctx context.Context, code string, windowDays int) (*models.RiskReport, error) {
	return m.getRiskReport(ctx, code, windowDays)
}

// mockStorage backs the handlers that read storage directly. Only the fund
// and history stores are populated.
type mockStorage struct {
	funds   mockFundStore
	history mockHistoryStore
}

func (m *mockStorage) HoldingStorage() interfaces.HoldingStorage         { return nil }
func (m *mockStorage) FundStorage() interfaces.FundStorage               { return &m.funds }
func (m *mockStorage) HistoryStorage() interfaces.HistoryStorage         { return &m.history }
func (m *mockStorage) SnapshotStorage() interfaces.SnapshotStorage       { return nil }
func (m *mockStorage) WatchlistStorage() interfaces.WatchlistStorage     { return nil }
func (m *mockStorage) TransactionStorage() interfaces.TransactionStorage { return nil }
func (m *mockStorage) Close() error                                      { return nil }

type mockFundStore struct {
	funds map[string]*models.Fund
}

func (m *mockFundStore) GetFund(_ context.Context, code string) (*models.Fund, error) {
	if f, ok := m.funds[code]; ok {
		return f, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *mockFundStore) LookupFunds(_ context.Context, codes []string) (map[string]*models.Fund, error) {
	out := make(map[string]*models.Fund)
	for _, code := range codes {
		if f, ok := m.funds[code]; ok {
			out[code] = f
		}
	}
	return out, nil
}

func (m *mockFundStore) SaveFund(_ context.Context, fund *models.Fund) error {
	if m.funds == nil {
		m.funds = map[string]*models.Fund{}
	}
	m.funds[fund.Code] = fund
	return nil
}

func (m *mockFundStore) ListFunds(_ context.Context) ([]*models.Fund, error) {
	var out []*models.Fund
	for _, f := range m.funds {
		out = append(out, f)
	}
	return out, nil
}

type mockHistoryStore struct {
	points map[string][]models.HistoryPoint
}

func (m *mockHistoryStore) GetHistory(_ context.Context, code string, limit int) ([]models.HistoryPoint, error) {
	points := m.points[code]
	if limit > 0 && len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points, nil
}

func (m *mockHistoryStore) LatestPoint(_ context.Context, code string) (*models.HistoryPoint, error) {
	points := m.points[code]
	if len(points) == 0 {
		return nil, interfaces.ErrNotFound
	}
	p := points[len(points)-1]
	return &p, nil
}

func (m *mockHistoryStore) LatestDates(_ context.Context, _ []string) (map[string]time.Time, error) {
	return map[string]time.Time{}, nil
}

func (m *mockHistoryStore) FirstPointAfter(_ context.Context, code string, after time.Time) (*models.HistoryPoint, error) {
	for _, p := range m.points[code] {
		if p.Date.After(after) {
			point := p
			return &point, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *mockHistoryStore) SaveHistory(_ context.Context, _ string, _ []models.HistoryPoint) error {
	return nil
}

func marketDay(s string) time.Time {
	d, _ := time.ParseInLocation("2006-01-02", s, tzCST)
	return d
}

func TestHandleFundDetail_InvalidCode(t *testing.T) {
	srv := newTestServer(&app.App{FundService: &mockFundService{}})

	for _, code := range []string{"abc123", "12345", "1100221", ""} {
		req := httptest.NewRequest(http.MethodGet, "/api/funds/"+code, nil)
		rec := httptest.NewRecorder()

		srv.handleFundDetail(rec, req, code)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("code %q: expected status 400, got %d", code, rec.Code)
		}
	}
}

func TestHandleFundDetail_ReturnsDetail(t *testing.T) {
	svc := &mockFundService{
		getFundDetail: func(ctx context.Context, code string) (*models.FundDetail, error) {
			return &models.FundDetail{
				Fund:      models.Fund{Code: code, Name: "易方达消费行业股票", Category: "股票型"},
				LatestNav: &models.HistoryPoint{Date: marketDay("2024-03-26"), Nav: 3.1415},
			}, nil
		},
	}

	srv := newTestServer(&app.App{FundService: svc})
	req := httptest.NewRequest(http.MethodGet, "/api/funds/110022", nil)
	rec := httptest.NewRecorder()

	srv.handleFundDetail(rec, req, "110022")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got models.FundDetail
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Fund.Name != "易方达消费行业股票" {
		t.Errorf("unexpected fund name %q", got.Fund.Name)
	}
	if got.LatestNav == nil || got.LatestNav.Nav != 3.1415 {
		t.Errorf("unexpected latest nav: %+v", got.LatestNav)
	}
}

func TestHandleFundHistory_ForwardsDays(t *testing.T) {
	var gotDays int
	svc := &mockFundService{
		getHistory: func(ctx context.Context, code string, days int) ([]models.HistoryPoint, error) {
			gotDays = days
			return []models.HistoryPoint{{Date: marketDay("2024-03-26"), Nav: 1.0}}, nil
		},
	}

	srv := newTestServer(&app.App{FundService: svc})
	req := httptest.NewRequest(http.MethodGet, "/api/funds/110022/history?days=90", nil)
	rec := httptest.NewRecorder()

	srv.handleFundHistory(rec, req, "110022")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if gotDays != 90 {
		t.Errorf("expected days 90, got %d", gotDays)
	}

	// Absent or malformed days falls back to the service default
	req = httptest.NewRequest(http.MethodGet, "/api/funds/110022/history?days=abc", nil)
	srv.handleFundHistory(httptest.NewRecorder(), req, "110022")
	if gotDays != 0 {
		t.Errorf("expected days 0 for malformed param, got %d", gotDays)
	}
}

func TestHandleFundRisk_RendersDisplayStrings(t *testing.T) {
	svc := &mockRiskService{
		getRiskReport: func(ctx context.Context, code string, windowDays int) (*models.RiskReport, error) {
			return &models.RiskReport{
				Code:       code,
				WindowDays: 365,
				Indicators: models.RiskIndicators{
					Sharpe:       models.MetricOf(1.234),
					Volatility:   models.MetricOf(0.1835),
					MaxDrawdown:  models.MetricOf(0.0712),
					AnnualReturn: models.MetricOf(0.2141),
					DataPoints:   244,
				},
				Consistency: models.PassVerdict(0.12),
				ComputedAt:  time.Date(2024, 3, 27, 10, 0, 0, 0, time.UTC),
			}, nil
		},
	}

	srv := newTestServer(&app.App{RiskService: svc})
	req := httptest.NewRequest(http.MethodGet, "/api/funds/110022/risk", nil)
	rec := httptest.NewRecorder()

	srv.handleFundRisk(rec, req, "110022")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got riskDTO
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Sharpe != "1.23" {
		t.Errorf("expected sharpe 1.23, got %q", got.Sharpe)
	}
	if got.Volatility != "18.35%" {
		t.Errorf("expected volatility 18.35%%, got %q", got.Volatility)
	}
	if got.MaxDrawdown != "7.12%" {
		t.Errorf("expected max drawdown 7.12%%, got %q", got.MaxDrawdown)
	}
	if got.AnnualReturn != "21.41%" {
		t.Errorf("expected annual return 21.41%%, got %q", got.AnnualReturn)
	}
	if got.Deviation != "0.12" {
		t.Errorf("expected deviation 0.12, got %q", got.Deviation)
	}
	if got.DataPoints != 244 {
		t.Errorf("expected 244 data points, got %d", got.DataPoints)
	}
}

func TestHandleFundRisk_InsufficientDataShowsMarkers(t *testing.T) {
	svc := &mockRiskService{
		getRiskReport: func(ctx context.Context, code string, windowDays int) (*models.RiskReport, error) {
			return &models.RiskReport{
				Code:        code,
				WindowDays:  365,
				Indicators:  models.RiskIndicators{DataPoints: 1},
				Consistency: models.SkippedVerdict("insufficient data points"),
			}, nil
		},
	}

	srv := newTestServer(&app.App{RiskService: svc})
	req := httptest.NewRequest(http.MethodGet, "/api/funds/110022/risk", nil)
	rec := httptest.NewRecorder()

	srv.handleFundRisk(rec, req, "110022")

	var got riskDTO
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Sharpe != "--" || got.Volatility != "--" || got.MaxDrawdown != "--" || got.AnnualReturn != "--" {
		t.Errorf("expected all markers, got %+v", got)
	}
	if got.Consistency != "not checked: insufficient data points" {
		t.Errorf("unexpected consistency text %q", got.Consistency)
	}
	if got.Deviation != "" {
		t.Errorf("expected deviation omitted when skipped, got %q", got.Deviation)
	}
}

func TestHandleFundIntraday_ChartPayload(t *testing.T) {
	store := &mockStorage{
		funds: mockFundStore{funds: map[string]*models.Fund{
			"110022": {Code: "110022", Name: "易方达消费行业股票"},
		}},
		history: mockHistoryStore{points: map[string][]models.HistoryPoint{
			"110022": {
				{Date: marketDay("2024-03-25"), Nav: 3.10},
				{Date: marketDay("2024-03-26"), Nav: 3.14},
				{Date: marketDay("2024-03-27"), Nav: 3.16},
			},
		}},
	}
	svc := &mockFundService{
		getIntraday: func(ctx context.Context, code string, day time.Time) ([]models.IntradaySnapshot, error) {
			return []models.IntradaySnapshot{
				{Code: code, CapturedAt: time.Date(2024, 3, 27, 9, 35, 0, 0, tzCST), Estimate: 3.151, ChangePct: 0.35},
				{Code: code, CapturedAt: time.Date(2024, 3, 27, 14, 30, 0, 0, tzCST), Estimate: 3.158, ChangePct: 0.57},
			}, nil
		},
	}

	srv := newTestServer(&app.App{FundService: svc, Storage: store})
	req := httptest.NewRequest(http.MethodGet, "/api/funds/110022/intraday?date=2024-03-27", nil)
	rec := httptest.NewRecorder()

	srv.handleFundIntraday(rec, req, "110022")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got intradayResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Date != "2024-03-27" {
		t.Errorf("expected date 2024-03-27, got %q", got.Date)
	}
	// Baseline skips the same-day point and takes the prior confirmed NAV
	if got.PrevNav == nil || *got.PrevNav != 3.14 {
		t.Errorf("expected prev nav 3.14, got %v", got.PrevNav)
	}
	if len(got.Snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(got.Snapshots))
	}
	if got.Snapshots[0].Time != "09:35" || got.Snapshots[1].Time != "14:30" {
		t.Errorf("unexpected snapshot times: %+v", got.Snapshots)
	}
	if got.LastCollectedAt != "14:30" {
		t.Errorf("expected last collected 14:30, got %q", got.LastCollectedAt)
	}
}

func TestHandleFundIntraday_NoHistoryLeavesPrevNavNull(t *testing.T) {
	store := &mockStorage{
		funds: mockFundStore{funds: map[string]*models.Fund{
			"110022": {Code: "110022"},
		}},
	}

	srv := newTestServer(&app.App{FundService: &mockFundService{}, Storage: store})
	req := httptest.NewRequest(http.MethodGet, "/api/funds/110022/intraday?date=2024-03-27", nil)
	rec := httptest.NewRecorder()

	srv.handleFundIntraday(rec, req, "110022")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got intradayResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.PrevNav != nil {
		t.Errorf("expected null prev nav, got %v", *got.PrevNav)
	}
	if got.Snapshots == nil || len(got.Snapshots) != 0 {
		t.Errorf("expected empty snapshot list, got %v", got.Snapshots)
	}
}

func TestHandleFundIntraday_UnknownFund(t *testing.T) {
	srv := newTestServer(&app.App{
		FundService: &mockFundService{},
		Storage:     &mockStorage{},
	})
	req := httptest.NewRequest(http.MethodGet, "/api/funds/999999/intraday", nil)
	rec := httptest.NewRecorder()

	srv.handleFundIntraday(rec, req, "999999")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandleFundIntraday_BadDate(t *testing.T) {
	srv := newTestServer(&app.App{FundService: &mockFundService{}, Storage: &mockStorage{}})
	req := httptest.NewRequest(http.MethodGet, "/api/funds/110022/intraday?date=27-03-2024", nil)
	rec := httptest.NewRecorder()

	srv.handleFundIntraday(rec, req, "110022")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleFundList(t *testing.T) {
	svc := &mockFundService{
		listFunds: func(ctx context.Context) ([]*models.Fund, error) {
			return []*models.Fund{{Code: "110022"}, {Code: "161725"}}, nil
		},
	}

	srv := newTestServer(&app.App{FundService: svc})
	req := httptest.NewRequest(http.MethodGet, "/api/funds", nil)
	rec := httptest.NewRecorder()

	srv.handleFundList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Count != 2 {
		t.Errorf("expected count 2, got %d", got.Count)
	}
}
