package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts cross the HTTP boundary as decimal strings ("1.50") but the core
// only ever sees integer smallest units. CurrencyDecimals in the config
// controls the exponent.

// ParseAmount converts a decimal string into smallest units. It rejects
// negative values and values with more fractional digits than the currency
// carries.
func ParseAmount(value string, decimals int32) (int64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", value)
	}
	shifted := d.Shift(decimals)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", value, decimals)
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %q overflows smallest units", value)
	}
	return shifted.IntPart(), nil
}

// FormatAmount renders smallest units back into a decimal string.
func FormatAmount(units int64, decimals int32) string {
	return decimal.New(units, -decimals).String()
}
