package number

import (
	"github.com/shopspring/decimal"
)

// Ceil rounds d up at precision
func Ceil(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Shift(precision).Ceil().Shift(-precision)
}

// Floor rounds d down at precision
func Floor(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Shift(precision).Floor().Shift(-precision)
}

// Percent renders a ratio like 1.5 as "150%"
func Percent(d decimal.Decimal, precision int32) string {
	return d.Shift(2).Round(precision).String() + "%"
}
