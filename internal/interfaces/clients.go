// Package interfaces defines service contracts for FundVal
package interfaces

import (
	"context"

	"github.com/tidewater/fundval/internal/models"
)

// ValuationSource provides live fund valuations and published NAV history
type ValuationSource interface {
	// FetchValuation retrieves the live estimate and latest confirmed NAV
	// for a fund. Missing fields in the upstream payload become zero values.
	FetchValuation(ctx context.Context, code string) (*models.ValuationSnapshot, error)

	// FetchNavHistory retrieves up to limit published NAV points,
	// ascending by date, deduplicated
	FetchNavHistory(ctx context.Context, code string, limit int) ([]models.HistoryPoint, error)
}
