package models

import (
	"fmt"
	"strconv"
	"time"
)

// InsufficientMarker is the display form of a metric that could not be
// computed. It appears only at the presentation boundary; internal code
// carries the tagged Metric type instead.
const InsufficientMarker = "--"

// Metric is a numeric indicator that is either present or unavailable
// because the underlying history is too short to support it.
type Metric struct {
	value float64
	ok    bool
}

// MetricOf returns a present metric carrying v.
func MetricOf(v float64) Metric {
	return Metric{value: v, ok: true}
}

// InsufficientMetric returns the "insufficient data" marker.
func InsufficientMetric() Metric {
	return Metric{}
}

// Value returns the numeric value, or 0 when the metric is absent.
// Check Present before treating the value as meaningful.
func (m Metric) Value() float64 {
	return m.value
}

// Present reports whether the metric carries a numeric value.
func (m Metric) Present() bool {
	return m.ok
}

// FormatRatio renders the metric as a plain decimal, or the marker.
func (m Metric) FormatRatio() string {
	if !m.ok {
		return InsufficientMarker
	}
	return fmt.Sprintf("%.2f", m.value)
}

// FormatPercent renders the fractional metric as a percentage, or the marker.
func (m Metric) FormatPercent() string {
	if !m.ok {
		return InsufficientMarker
	}
	return fmt.Sprintf("%.2f%%", m.value*100)
}

// MarshalJSON emits the numeric value, or null when insufficient.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.ok {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, m.value, 'g', -1, 64), nil
}

// UnmarshalJSON accepts a number or null.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric{}
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid metric value %q: %w", data, err)
	}
	*m = MetricOf(v)
	return nil
}

// RiskIndicators holds the computed risk profile for one NAV series.
// Volatility, MaxDrawdown and AnnualReturn are fractions (0.12 == 12%).
type RiskIndicators struct {
	Sharpe       Metric `json:"sharpe"`
	Volatility   Metric `json:"volatility"`
	MaxDrawdown  Metric `json:"max_drawdown"`
	AnnualReturn Metric `json:"annual_return"`
	DataPoints   int    `json:"data_points"`
}

// VerdictStatus classifies the consistency self-check outcome.
type VerdictStatus string

const (
	VerdictPass    VerdictStatus = "pass"
	VerdictWarning VerdictStatus = "warning"
	VerdictSkipped VerdictStatus = "skipped"
)

// ConsistencyVerdict is the self-check result attached to a risk report.
// Advisory only; it never alters the indicator values it describes.
type ConsistencyVerdict struct {
	Status    VerdictStatus `json:"status"`
	Deviation float64       `json:"deviation,omitempty"` // |expected - reported| sharpe
	Reason    string        `json:"reason,omitempty"`    // set when skipped
}

// PassVerdict returns a passing verdict with the observed deviation.
func PassVerdict(deviation float64) ConsistencyVerdict {
	return ConsistencyVerdict{Status: VerdictPass, Deviation: deviation}
}

// WarningVerdict returns a warning verdict with the observed deviation.
func WarningVerdict(deviation float64) ConsistencyVerdict {
	return ConsistencyVerdict{Status: VerdictWarning, Deviation: deviation}
}

// SkippedVerdict returns a skipped verdict with the reason the check
// could not run.
func SkippedVerdict(reason string) ConsistencyVerdict {
	return ConsistencyVerdict{Status: VerdictSkipped, Reason: reason}
}

// RiskReport is the analytics payload handed to report consumers.
// Computed on request, not persisted.
type RiskReport struct {
	Code        string             `json:"code"`
	WindowDays  int                `json:"window_days"`
	Indicators  RiskIndicators     `json:"indicators"`
	Consistency ConsistencyVerdict `json:"consistency"`
	ComputedAt  time.Time          `json:"computed_at"`
}
