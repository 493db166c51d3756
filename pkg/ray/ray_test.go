package ray

import (
	"errors"
	"testing"

	"cdp/core"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulRoundsHalfUp(t *testing.T) {
	// 1.5 * 1.5 = 2.25
	z, err := Mul(Rays("1.5"), Rays("1.5"))
	require.Nil(t, err)
	assert.Equal(t, Rays("2.25").Dec(), z.Dec())

	// 1 unit * 0.5 rounds up to 1 unit
	z, err = Mul(uint256.NewInt(1), Rays("0.5"))
	require.Nil(t, err)
	assert.Equal(t, uint64(1), z.Uint64())

	// 1 unit * 0.4999... rounds down to zero
	z, err = Mul(uint256.NewInt(1), Rays("0.4999"))
	require.Nil(t, err)
	assert.True(t, z.IsZero())
}

func TestMulIdentity(t *testing.T) {
	x := uint256.MustFromDecimal("1000000000627937192491029811")
	z, err := Mul(RAY, x)
	require.Nil(t, err)
	assert.Equal(t, x.Dec(), z.Dec())
}

func TestMulOverflow(t *testing.T) {
	_, err := Mul(Max, Rays("2"))
	assert.True(t, errors.Is(err, core.ErrArithmeticOverflow))
}

func TestDiv(t *testing.T) {
	z, err := Div(Wads("12000"), Rays("1.2"))
	require.Nil(t, err)
	assert.Equal(t, Wads("10000").Dec(), z.Dec())

	_, err = Div(RAY, Zero())
	assert.True(t, errors.Is(err, core.ErrArithmeticOverflow))
}

func TestRatio(t *testing.T) {
	z, err := Ratio(Wads("20000"), Wads("12000"))
	require.Nil(t, err)
	assert.True(t, z.Gt(Rays("1.5")))
	assert.True(t, z.Lt(Rays("1.67")))

	z, err = Ratio(Wads("15000"), Wads("10000"))
	require.Nil(t, err)
	assert.Equal(t, Rays("1.5").Dec(), z.Dec())
}

func TestSub(t *testing.T) {
	_, err := Sub(uint256.NewInt(1), uint256.NewInt(2))
	assert.True(t, errors.Is(err, core.ErrArithmeticOverflow))

	z, err := Sub(uint256.NewInt(5), uint256.NewInt(2))
	require.Nil(t, err)
	assert.Equal(t, uint64(3), z.Uint64())
}

func TestDecimalConversion(t *testing.T) {
	z, err := FromDecimal(decimal.RequireFromString("1.000000000627937192491029811"), RayDecimals)
	require.Nil(t, err)
	assert.Equal(t, "1000000000627937192491029811", z.Dec())

	assert.Equal(t, "8.4", ToDecimal(Wads("8.4"), WadDecimals).String())

	_, err = FromDecimal(decimal.NewFromInt(-1), WadDecimals)
	assert.True(t, errors.Is(err, core.ErrInvalidAmount))

	_, err = Parse("abc", WadDecimals)
	assert.True(t, errors.Is(err, core.ErrInvalidAmount))

	_, err = Parse("1e80", WadDecimals)
	assert.True(t, errors.Is(err, core.ErrArithmeticOverflow))
}
