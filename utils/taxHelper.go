package utils

import (
	"github.com/shopspring/decimal"
)

var decimalOneHundred = decimal.NewFromInt(100)

// CalculateLineAmount returns quantity * unitPrice rounded to the cent.
func CalculateLineAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// CalculateTaxAmount computes the GST portion of a tax-exclusive amount:
// (amount / 100) * rate. Unit prices are always tax-exclusive; tax is
// additive, never inclusive.
func CalculateTaxAmount(amount, taxRate decimal.Decimal) decimal.Decimal {
	if taxRate.IsZero() {
		return decimal.Zero
	}
	return amount.DivRound(decimalOneHundred, 4).Mul(taxRate).Round(2)
}

// ValidTaxRate reports whether rate is within [0, 100].
func ValidTaxRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && !rate.GreaterThan(decimalOneHundred)
}
