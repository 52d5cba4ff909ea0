package eastmoney

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const valuationFixture = `jsonpgz({"fundcode":"110022","name":"易方达消费行业股票","jzrq":"2024-03-27","dwjz":"3.1420","gsz":"3.1856","gszzl":"1.39","gztime":"2024-03-28 14:59"});`

func TestFetchValuation_ParsesJSONP(t *testing.T) {
	var capturedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		w.Header().Set("Content-Type", "application/javascript")
		w.Write([]byte(valuationFixture))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	snap, err := client.FetchValuation(context.Background(), "110022")
	if err != nil {
		t.Fatalf("FetchValuation failed: %v", err)
	}

	if capturedPath != "/js/110022.js" {
		t.Errorf("expected path /js/110022.js, got %s", capturedPath)
	}
	if snap.Code != "110022" {
		t.Errorf("expected code 110022, got %s", snap.Code)
	}
	if snap.Name != "易方达消费行业股票" {
		t.Errorf("unexpected name %s", snap.Name)
	}
	if snap.ConfirmedNav != 3.1420 {
		t.Errorf("expected confirmed nav 3.1420, got %.4f", snap.ConfirmedNav)
	}
	if snap.LiveEstimate != 3.1856 {
		t.Errorf("expected estimate 3.1856, got %.4f", snap.LiveEstimate)
	}
	if snap.EstimateChangePct != 1.39 {
		t.Errorf("expected change pct 1.39, got %.2f", snap.EstimateChangePct)
	}
	wantNavDate := time.Date(2024, 3, 27, 0, 0, 0, 0, cst)
	if !snap.NavDate.Equal(wantNavDate) {
		t.Errorf("expected nav date %v, got %v", wantNavDate, snap.NavDate)
	}
	wantAsOf := time.Date(2024, 3, 28, 14, 59, 0, 0, cst)
	if !snap.AsOfTime.Equal(wantAsOf) {
		t.Errorf("expected as-of %v, got %v", wantAsOf, snap.AsOfTime)
	}
}

func TestFetchValuation_BlankFields(t *testing.T) {
	// Money-market funds publish no estimate; numeric fields arrive blank
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`jsonpgz({"fundcode":"000198","name":"天弘余额宝货币","jzrq":"2024-03-28","dwjz":"1.0000","gsz":"","gszzl":"","gztime":""});`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	snap, err := client.FetchValuation(context.Background(), "000198")
	if err != nil {
		t.Fatalf("FetchValuation failed: %v", err)
	}

	if snap.LiveEstimate != 0 {
		t.Errorf("expected zero estimate, got %.4f", snap.LiveEstimate)
	}
	if snap.EstimateChangePct != 0 {
		t.Errorf("expected zero change pct, got %.4f", snap.EstimateChangePct)
	}
	if snap.ConfirmedNav != 1.0 {
		t.Errorf("expected confirmed nav 1.0, got %.4f", snap.ConfirmedNav)
	}
	if !snap.AsOfTime.IsZero() {
		t.Errorf("expected zero as-of time, got %v", snap.AsOfTime)
	}
}

func TestFetchValuation_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`jsonpgz`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.FetchValuation(context.Background(), "110022")
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestFetchValuation_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("fund not found"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.FetchValuation(context.Background(), "999999")
	if err == nil {
		t.Fatal("expected error for unknown fund")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", apiErr.StatusCode)
	}
}

func TestFetchValuation_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithTimeout(100*time.Millisecond))
	_, err := client.FetchValuation(context.Background(), "110022")
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestFetchNavHistory_ParsesAndSorts(t *testing.T) {
	// The endpoint returns rows newest first, with occasional blanks
	mockResp := map[string]interface{}{
		"Data": map[string]interface{}{
			"LSJZList": []map[string]interface{}{
				{"FSRQ": "2024-03-28", "DWJZ": "3.1420"},
				{"FSRQ": "2024-03-27", "DWJZ": "3.1002"},
				{"FSRQ": "2024-03-27", "DWJZ": "3.1002"},
				{"FSRQ": "2024-03-26", "DWJZ": ""},
				{"FSRQ": "2024-03-25", "DWJZ": "3.0561"},
			},
		},
		"ErrCode":    0,
		"TotalCount": 5,
	}

	var capturedQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockResp)
	}))
	defer srv.Close()

	client := NewClient(WithHistoryBaseURL(srv.URL))
	points, err := client.FetchNavHistory(context.Background(), "110022", 5)
	if err != nil {
		t.Fatalf("FetchNavHistory failed: %v", err)
	}

	if capturedQuery != "fundCode=110022&pageIndex=1&pageSize=5" {
		t.Errorf("unexpected query %s", capturedQuery)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points after dedupe and blank skip, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if !points[i-1].Date.Before(points[i].Date) {
			t.Errorf("points not ascending at index %d: %v >= %v", i, points[i-1].Date, points[i].Date)
		}
	}
	if points[0].Nav != 3.0561 {
		t.Errorf("expected oldest nav 3.0561, got %.4f", points[0].Nav)
	}
	if points[2].Nav != 3.1420 {
		t.Errorf("expected newest nav 3.1420, got %.4f", points[2].Nav)
	}
}

func TestFetchNavHistory_SendsReferer(t *testing.T) {
	var capturedReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedReferer = r.Header.Get("Referer")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Data": map[string]interface{}{"LSJZList": []map[string]interface{}{}},
		})
	}))
	defer srv.Close()

	client := NewClient(WithHistoryBaseURL(srv.URL))
	_, err := client.FetchNavHistory(context.Background(), "110022", 5)
	if err != nil {
		t.Fatalf("FetchNavHistory failed: %v", err)
	}
	if capturedReferer != "http://fundf10.eastmoney.com/" {
		t.Errorf("expected fund-site referer, got %q", capturedReferer)
	}
}

func TestFetchNavHistory_ErrCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Data":    map[string]interface{}{"LSJZList": []map[string]interface{}{}},
			"ErrCode": 30,
		})
	}))
	defer srv.Close()

	client := NewClient(WithHistoryBaseURL(srv.URL))
	_, err := client.FetchNavHistory(context.Background(), "110022", 5)
	if err == nil {
		t.Fatal("expected error for non-zero ErrCode")
	}
}

func TestFetchNavHistory_DefaultLimit(t *testing.T) {
	var capturedSize string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedSize = r.URL.Query().Get("pageSize")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Data": map[string]interface{}{"LSJZList": []map[string]interface{}{}},
		})
	}))
	defer srv.Close()

	client := NewClient(WithHistoryBaseURL(srv.URL))
	if _, err := client.FetchNavHistory(context.Background(), "110022", 0); err != nil {
		t.Fatalf("FetchNavHistory failed: %v", err)
	}
	if capturedSize != "30" {
		t.Errorf("expected default page size 30, got %s", capturedSize)
	}
}

func TestFlexFloat64_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"number", "3.1420", 3.1420},
		{"string", `"3.1420"`, 3.1420},
		{"zero", "0", 0},
		{"string_zero", `"0"`, 0},
		{"empty_string", `""`, 0},
		{"dash_placeholder", `"--"`, 0},
		{"garbage", `"abc"`, 0},
		{"negative", `"-1.39"`, -1.39},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f flexFloat64
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("UnmarshalJSON(%s) error: %v", tt.input, err)
			}
			if float64(f) != tt.expected {
				t.Errorf("UnmarshalJSON(%s) = %v, want %v", tt.input, float64(f), tt.expected)
			}
		})
	}
}
