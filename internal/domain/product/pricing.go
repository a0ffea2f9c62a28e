// internal/domain/product/pricing.go
package product

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of fraction digits every amount carries
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero, which is half-up for the non-negative amounts used here
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// FormatMoney renders an amount with exactly two fraction digits
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}

// ActualPrice applies a percentage discount: price * (100 - discount) / 100
func ActualPrice(price decimal.Decimal, discount int) decimal.Decimal {
	if discount < 0 {
		discount = 0
	}
	if discount > 100 {
		discount = 100
	}
	factor := decimal.NewFromInt(int64(100 - discount))
	return RoundMoney(price.Mul(factor).Div(hundred))
}

// UnitPrice is what a cart line is charged per unit.
// Missing or non-orderable products cost nothing.
func UnitPrice(p *Product) decimal.Decimal {
	if p == nil || !p.AvailableForOrder {
		return decimal.Zero
	}
	return p.ActualPrice()
}

// LineTotal is unit * quantity, rounded once per line
func LineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return RoundMoney(unit.Mul(decimal.NewFromInt(int64(quantity))))
}

// SumMoney adds already-rounded line totals and quantizes the result
func SumMoney(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return RoundMoney(total)
}
