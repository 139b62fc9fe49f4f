package types

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for monetary values
const MoneyScale = 2

// ToMinorUnits converts a monetary amount to integer cents.
// Amounts with more than MoneyScale fractional digits are rejected rather
// than rounded.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.Equal(amount.Truncate(MoneyScale)) {
		return 0, ErrPricePrecision
	}
	return amount.Shift(MoneyScale).IntPart(), nil
}

// FromMinorUnits converts integer cents back to a decimal amount
func FromMinorUnits(units int64) decimal.Decimal {
	return decimal.New(units, -MoneyScale)
}

// ValidatePrice checks that a price is non-negative with at most two decimals
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrNegativePrice
	}
	if !price.Equal(price.Truncate(MoneyScale)) {
		return ErrPricePrecision
	}
	return nil
}
