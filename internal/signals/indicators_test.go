package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDailyReturns(t *testing.T) {
	tests := []struct {
		name     string
		navs     []float64
		expected []float64
	}{
		{
			name:     "known series",
			navs:     []float64{1.000, 1.010, 1.005, 1.020},
			expected: []float64{0.01, -0.0049505, 0.0149254},
		},
		{
			name:     "single point",
			navs:     []float64{1.234},
			expected: nil,
		},
		{
			name:     "empty",
			navs:     nil,
			expected: nil,
		},
		{
			name:     "zero previous nav skipped",
			navs:     []float64{1.0, 0, 2.0},
			expected: []float64{-1.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DailyReturns(tt.navs)
			assert.Len(t, result, len(tt.expected))
			for i := range tt.expected {
				assert.InDelta(t, tt.expected[i], result[i], 0.0001)
			}
		})
	}
}

func TestAnnualizedReturn(t *testing.T) {
	tests := []struct {
		name     string
		first    float64
		last     float64
		periods  int
		expected float64
	}{
		{
			name:     "doubling over one trading year",
			first:    1.0,
			last:     2.0,
			periods:  252,
			expected: 1.0,
		},
		{
			name:     "flat series",
			first:    1.5,
			last:     1.5,
			periods:  100,
			expected: 0.0,
		},
		{
			name:     "known 3-period series",
			first:    1.000,
			last:     1.020,
			periods:  3,
			expected: 4.2773,
		},
		{
			name:     "zero first nav",
			first:    0,
			last:     1.0,
			periods:  10,
			expected: 0.0,
		},
		{
			name:     "no periods",
			first:    1.0,
			last:     1.1,
			periods:  0,
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnnualizedReturn(tt.first, tt.last, tt.periods)
			assert.InDelta(t, tt.expected, result, 0.001)
		})
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	tests := []struct {
		name     string
		returns  []float64
		expected float64
	}{
		{
			name:     "known series",
			returns:  DailyReturns([]float64{1.000, 1.010, 1.005, 1.020}),
			expected: 0.1643,
		},
		{
			name:     "constant returns have zero volatility",
			returns:  []float64{0.01, 0.01, 0.01, 0.01},
			expected: 0.0,
		},
		{
			name:     "single return",
			returns:  []float64{0.05},
			expected: 0.0,
		},
		{
			name:     "empty",
			returns:  nil,
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnnualizedVolatility(tt.returns)
			assert.InDelta(t, tt.expected, result, 0.001)
		})
	}
}

func TestSharpeRatio(t *testing.T) {
	tests := []struct {
		name         string
		annualReturn float64
		volatility   float64
		riskFree     float64
		expected     float64
	}{
		{
			name:         "twelve percent return at ten percent volatility",
			annualReturn: 0.12,
			volatility:   0.10,
			riskFree:     0.02,
			expected:     1.0,
		},
		{
			name:         "negative excess return",
			annualReturn: -0.05,
			volatility:   0.20,
			riskFree:     0.02,
			expected:     -0.35,
		},
		{
			name:         "zero volatility",
			annualReturn: 0.12,
			volatility:   0,
			riskFree:     0.02,
			expected:     0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SharpeRatio(tt.annualReturn, tt.volatility, tt.riskFree)
			assert.InDelta(t, tt.expected, result, 0.0001)
		})
	}
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		navs     []float64
		expected float64
	}{
		{
			name:     "known series",
			navs:     []float64{1.000, 1.010, 1.005, 1.020},
			expected: 0.0049505,
		},
		{
			name:     "monotonic rise has no drawdown",
			navs:     []float64{1.0, 1.1, 1.2, 1.3},
			expected: 0.0,
		},
		{
			name:     "halving from peak",
			navs:     []float64{1.0, 2.0, 1.0},
			expected: 0.5,
		},
		{
			name:     "recovery does not reduce the max",
			navs:     []float64{1.0, 0.8, 1.5, 1.4},
			expected: 0.2,
		},
		{
			name:     "empty",
			navs:     nil,
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MaxDrawdown(tt.navs)
			assert.InDelta(t, tt.expected, result, 0.0001)
		})
	}
}
