// Package ray implements the fixed-point arithmetic used by the vault engine.
//
// Rates, ratios and indexes are RAY numbers (1e27 == 1.0). Token amounts and
// prices are WAD numbers (1e18 == one whole unit). Every helper fails with
// core.ErrArithmeticOverflow instead of wrapping.
package ray

import (
	"cdp/core"

	"github.com/holiman/uint256"
)

var (
	// RAY 1e27
	RAY = uint256.MustFromDecimal("1000000000000000000000000000")
	// WAD 1e18
	WAD = uint256.NewInt(1_000_000_000_000_000_000)

	halfRAY   = new(uint256.Int).Rsh(RAY, 1)
	raySquare = new(uint256.Int).Mul(RAY, RAY)

	// Max largest representable value, used as "infinitely healthy"
	Max = new(uint256.Int).SetAllOne()
)

// One returns a fresh copy of RAY
func One() *uint256.Int {
	return new(uint256.Int).Set(RAY)
}

// Zero returns a fresh zero value
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// Copy returns a copy of x, treating nil as zero
func Copy(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}

	return new(uint256.Int).Set(x)
}

// Mul multiplies two RAY numbers rounding half up: (a*b + RAY/2) / RAY
func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	product, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, core.ErrArithmeticOverflow
	}

	if _, overflow := product.AddOverflow(product, halfRAY); overflow {
		return nil, core.ErrArithmeticOverflow
	}

	return product.Div(product, RAY), nil
}

// Div divides two RAY numbers rounding half up: (a*RAY + b/2) / b
func Div(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() {
		return nil, core.ErrArithmeticOverflow
	}

	scaled, overflow := new(uint256.Int).MulOverflow(a, RAY)
	if overflow {
		return nil, core.ErrArithmeticOverflow
	}

	half := new(uint256.Int).Rsh(b, 1)
	if _, overflow := scaled.AddOverflow(scaled, half); overflow {
		return nil, core.ErrArithmeticOverflow
	}

	return scaled.Div(scaled, b), nil
}

// MulDiv computes floor(x*y/d) with a 512-bit intermediate
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, core.ErrArithmeticOverflow
	}

	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, core.ErrArithmeticOverflow
	}

	return z, nil
}

// Ratio computes a/b as a RAY number, rounding down
func Ratio(a, b *uint256.Int) (*uint256.Int, error) {
	return MulDiv(a, RAY, b)
}

// Add returns a+b
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, core.ErrArithmeticOverflow
	}

	return z, nil
}

// Sub returns a-b, failing with underflow as overflow
func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, core.ErrArithmeticOverflow
	}

	return z, nil
}

// Min returns a copy of the smaller value
func Min(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return Copy(a)
	}

	return Copy(b)
}

// HealthScale is RAY*RAY, used to keep health factors in RAY after dividing
// by a debt*ratio product that itself carries one RAY.
func HealthScale() *uint256.Int {
	return new(uint256.Int).Set(raySquare)
}
