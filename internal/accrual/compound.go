package accrual

import (
	"cdp/pkg/ray"

	"github.com/holiman/uint256"
)

// SecondsPerYear used only for reporting annual rates
const SecondsPerYear = 365 * 24 * 60 * 60

// Compound returns rate^elapsed in RAY using square-and-multiply, so months
// of inactivity cost O(log elapsed) multiplications. Each multiplication
// rounds half up. The result is ErrArithmeticOverflow when it no longer fits.
func Compound(rate *uint256.Int, elapsed uint64) (*uint256.Int, error) {
	result := ray.One()
	if elapsed&1 == 1 {
		result = ray.Copy(rate)
	}

	base := ray.Copy(rate)
	for n := elapsed >> 1; n > 0; n >>= 1 {
		squared, err := ray.Mul(base, base)
		if err != nil {
			return nil, err
		}
		base = squared

		if n&1 == 1 {
			if result, err = ray.Mul(result, base); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

// AnnualRate rate^SecondsPerYear, handy for views
func AnnualRate(rate *uint256.Int) (*uint256.Int, error) {
	return Compound(rate, SecondsPerYear)
}
