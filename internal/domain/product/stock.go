// internal/domain/product/stock.go
package product

import "github.com/your-org/storefront-api/internal/domain/apperr"

// ValidateStock decides whether requested more units (on top of committed ones
// already held) may be reserved against p.
//
// Checks run in a fixed order: orderable, quantities, stock state, then the sum.
// It never mutates p.
func ValidateStock(p *Product, requested, committed int) error {
	if p == nil {
		return apperr.New(apperr.KindUnavailable, "product", "product is no longer available")
	}
	if !p.AvailableForOrder {
		return apperr.New(apperr.KindUnavailable, p.Name, "product '%s' is not available for order", p.Name)
	}
	if requested < 0 || committed < 0 {
		return apperr.New(apperr.KindInvalidQuantity, p.Name, "quantity must not be negative")
	}
	if p.Stock < 0 {
		return apperr.New(apperr.KindInvalidStockState, p.Name, "product '%s' has an invalid stock value %d", p.Name, p.Stock)
	}

	total := requested + committed
	if total > p.Stock {
		return apperr.InsufficientStock(p.Name, p.Stock, total)
	}
	return nil
}
