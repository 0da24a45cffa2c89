// Package pricing is the single place that decides which price applies to a
// product. Every pricing-sensitive operation goes through Resolve with an
// explicit spot-mode flag instead of consulting global state.
package pricing

import (
	"github.com/shopspring/decimal"

	"souq/internal/models"
)

// Resolve returns the applicable unit price for a product. While Spot Mode is
// active the spot price applies, falling back to the regular price when no
// spot price is set. Callers must reject soft-deleted products before
// resolving. Pure function, no I/O.
func Resolve(product *models.Product, spotModeActive bool) decimal.Decimal {
	if spotModeActive && product.SpotPrice.Valid {
		return product.SpotPrice.Decimal
	}
	return product.RegularPrice
}
