// Package eastmoney provides a client for the public Eastmoney fund endpoints
package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/metrics"
	"github.com/tidewater/fundval/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "--" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL        = "http://fundgz.1234567.com.cn"
	DefaultHistoryBaseURL = "http://api.fund.eastmoney.com"
	DefaultTimeout        = 10 * time.Second
	DefaultRateLimit      = 10 // requests per second
	DefaultHistoryLimit   = 30
)

// cst is the exchange timezone for all Eastmoney dates and timestamps.
var cst = time.FixedZone("CST", 8*60*60)

// Client fetches live valuations and NAV history from Eastmoney
type Client struct {
	baseURL        string
	historyBaseURL string
	httpClient     *http.Client
	logger         *common.Logger
	limiter        *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the valuation endpoint base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHistoryBaseURL sets the NAV history endpoint base URL
func WithHistoryBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.historyBaseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Eastmoney client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		historyBaseURL: DefaultHistoryBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Eastmoney API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// metricEndpoint maps a concrete request path to a bounded metric label.
// Valuation paths embed the fund code and would explode label cardinality.
func metricEndpoint(endpoint string) string {
	if strings.HasPrefix(endpoint, "/js/") {
		return "valuation"
	}
	return "history"
}

// fetch performs a rate-limited GET request and returns the raw body
func (c *Client) fetch(ctx context.Context, reqURL, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// The history API rejects requests without a fund-site referer
	req.Header.Set("Referer", "http://fundf10.eastmoney.com/")

	c.logger.Debug().Str("endpoint", endpoint).Msg("Eastmoney API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.FetchFailures.WithLabelValues(metricEndpoint(endpoint)).Inc()
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.FetchFailures.WithLabelValues(metricEndpoint(endpoint)).Inc()
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.FetchFailures.WithLabelValues(metricEndpoint(endpoint)).Inc()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   endpoint,
		}
	}
	return body, nil
}

// valuationResponse is the jsonpgz payload. Every field arrives as a string.
type valuationResponse struct {
	Code      string      `json:"fundcode"`
	Name      string      `json:"name"`
	NavDate   string      `json:"jzrq"`   // confirmed NAV date
	Nav       flexFloat64 `json:"dwjz"`   // confirmed NAV
	Estimate  flexFloat64 `json:"gsz"`    // live estimate
	ChangePct flexFloat64 `json:"gszzl"`  // estimate change percent
	AsOf      string      `json:"gztime"` // estimate timestamp
}

// FetchValuation retrieves the live estimate and latest confirmed NAV for a fund
func (c *Client) FetchValuation(ctx context.Context, code string) (*models.ValuationSnapshot, error) {
	endpoint := fmt.Sprintf("/js/%s.js", code)
	body, err := c.fetch(ctx, c.baseURL+endpoint, endpoint)
	if err != nil {
		return nil, err
	}

	payload, err := stripJSONP(body)
	if err != nil {
		return nil, fmt.Errorf("fund '%s': %w", code, err)
	}

	var raw valuationResponse
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode valuation for '%s': %w", code, err)
	}

	snapshot := &models.ValuationSnapshot{
		Code:              raw.Code,
		Name:              raw.Name,
		ConfirmedNav:      float64(raw.Nav),
		LiveEstimate:      float64(raw.Estimate),
		EstimateChangePct: float64(raw.ChangePct),
	}
	if raw.Code == "" {
		snapshot.Code = code
	}
	if d, err := time.ParseInLocation("2006-01-02", raw.NavDate, cst); err == nil {
		snapshot.NavDate = d
	}
	if ts, err := time.ParseInLocation("2006-01-02 15:04", raw.AsOf, cst); err == nil {
		snapshot.AsOfTime = ts
	}
	return snapshot, nil
}

// historyResponse is the FundLSJZList envelope
type historyResponse struct {
	Data struct {
		List []historyRow `json:"LSJZList"`
	} `json:"Data"`
	ErrCode    int `json:"ErrCode"`
	TotalCount int `json:"TotalCount"`
}

type historyRow struct {
	Date string      `json:"FSRQ"`
	Nav  flexFloat64 `json:"DWJZ"`
}

// FetchNavHistory retrieves up to limit published NAV points, ascending by date
func (c *Client) FetchNavHistory(ctx context.Context, code string, limit int) ([]models.HistoryPoint, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	params := url.Values{}
	params.Set("fundCode", code)
	params.Set("pageIndex", "1")
	params.Set("pageSize", strconv.Itoa(limit))
	endpoint := "/api/FundLSJZList"

	body, err := c.fetch(ctx, c.historyBaseURL+endpoint+"?"+params.Encode(), endpoint)
	if err != nil {
		return nil, err
	}

	var raw historyResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode history for '%s': %w", code, err)
	}
	if raw.ErrCode != 0 {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Message:    fmt.Sprintf("ErrCode %d", raw.ErrCode),
			Endpoint:   endpoint,
		}
	}

	points := make([]models.HistoryPoint, 0, len(raw.Data.List))
	seen := make(map[string]struct{}, len(raw.Data.List))
	for _, row := range raw.Data.List {
		if row.Nav <= 0 {
			continue
		}
		date, err := time.ParseInLocation("2006-01-02", row.Date, cst)
		if err != nil {
			continue
		}
		if _, ok := seen[row.Date]; ok {
			continue
		}
		seen[row.Date] = struct{}{}
		points = append(points, models.HistoryPoint{Date: date, Nav: float64(row.Nav)})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points, nil
}

// stripJSONP unwraps a jsonpgz(...) payload to its JSON body.
func stripJSONP(body []byte) ([]byte, error) {
	s := string(body)
	start := strings.Index(s, "(")
	end := strings.LastIndex(s, ")")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("malformed jsonp payload")
	}
	return []byte(s[start+1 : end]), nil
}
