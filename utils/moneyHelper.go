package utils

import (
	"github.com/shopspring/decimal"
)

var decimalOneHundred = decimal.NewFromInt(100)

// RoundMoney rounds a money amount to 2 decimal places, half away from zero.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// CalculateDiscountAmount computes the discount for a subtotal.
// discountType "P" is a percentage of the subtotal, anything else is a flat amount.
// The result is capped at the subtotal so the taxable amount can never go negative.
func CalculateDiscountAmount(subTotal decimal.Decimal, discount decimal.Decimal, discountType string) decimal.Decimal {

	var discountAmount decimal.Decimal

	if discount.GreaterThan(decimal.Zero) {
		if discountType == "P" {
			discountAmount = subTotal.Mul(discount).DivRound(decimalOneHundred, 4)
		} else {
			discountAmount = discount
		}
	} else {
		discountAmount = decimal.Zero
	}

	if discountAmount.GreaterThan(subTotal) {
		discountAmount = subTotal
	}

	return discountAmount
}

// CalculateTaxAmount computes GST for an amount at the given rate.
// Tax-inclusive: the amount already contains tax, so back it out:
// tax = (amount / (100 + rate)) * rate. Tax-exclusive: tax = (amount / 100) * rate.
func CalculateTaxAmount(amount decimal.Decimal, taxRate decimal.Decimal, isTaxInclusive bool) decimal.Decimal {
	if taxRate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	var taxAmount decimal.Decimal
	if isTaxInclusive {
		taxAmount = amount.DivRound(taxRate.Add(decimalOneHundred), 4).Mul(taxRate)
	} else {
		taxAmount = amount.DivRound(decimalOneHundred, 4).Mul(taxRate)
	}

	return taxAmount
}
