package ray

import (
	"fmt"

	"cdp/core"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const (
	// RayDecimals decimals carried by a RAY number
	RayDecimals int32 = 27
	// WadDecimals decimals carried by a WAD number
	WadDecimals int32 = 18
)

// FromDecimal scales d by 10^decimals and truncates the rest
func FromDecimal(d decimal.Decimal, decimals int32) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, fmt.Errorf("negative value %s: %w", d, core.ErrInvalidAmount)
	}

	scaled := d.Shift(decimals).Truncate(0)
	z, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, core.ErrArithmeticOverflow
	}

	return z, nil
}

// ToDecimal converts a scaled integer back to a human decimal
func ToDecimal(x *uint256.Int, decimals int32) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(x.ToBig(), -decimals)
}

// Parse parses a human decimal string like "1.5" into a fixed-point number
func Parse(s string, decimals int32) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, core.ErrInvalidAmount)
	}

	return FromDecimal(d, decimals)
}

// MustParse is Parse for constants
func MustParse(s string, decimals int32) *uint256.Int {
	z, err := Parse(s, decimals)
	if err != nil {
		panic(err)
	}

	return z
}

// Rays parses a RAY number ("1.5" -> 1.5e27)
func Rays(s string) *uint256.Int {
	return MustParse(s, RayDecimals)
}

// Wads parses a WAD number ("2000" -> 2000e18)
func Wads(s string) *uint256.Int {
	return MustParse(s, WadDecimals)
}
