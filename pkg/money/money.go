package money

import "github.com/shopspring/decimal"

// MinorUnitPlaces is the number of decimal places of the currency minor unit.
const MinorUnitPlaces = 2

// RoundHalfUp rounds to the currency minor unit with half-up semantics:
// 0.005 rounds to 0.01, never to even. Prices and quantities are
// non-negative, so half away from zero and half up coincide. Line totals
// are rounded before summation so order totals stay deterministic and
// auditable.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(MinorUnitPlaces)
}

// LineTotal computes RoundHalfUp(quantity * unitPrice).
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return RoundHalfUp(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}
