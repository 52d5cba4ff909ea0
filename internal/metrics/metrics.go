// Package metrics registers the Prometheus collectors for FundVal.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fundval_http_requests_total", Help: "HTTP requests served"},
		[]string{"method", "path", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fundval_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	FetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fundval_fetch_failures_total", Help: "Upstream valuation fetches that errored"},
		[]string{"endpoint"},
	)
	SchedulerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fundval_scheduler_runs_total", Help: "Background job runs by outcome"},
		[]string{"job", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, RequestDuration, FetchFailures, SchedulerRuns)
}

// Handler serves the /metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
