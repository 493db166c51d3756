package number

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/shopspring/decimal"
)

func TestCeil(t *testing.T) {
	data := map[string]string{
		"0.10304":     "0.11",
		"0.100000001": "0.11",
		"0.108":       "0.11",
	}

	for k, v := range data {
		t.Run(k, func(t *testing.T) {
			c := Ceil(decimal.RequireFromString(k), 2)
			assert.Equal(t, v, c.String(), "should be ceil")
		})
	}
}

func TestFloor(t *testing.T) {
	data := map[string]string{
		"1.6666666": "1.66",
		"1.25":      "1.25",
		"0.009":     "0",
	}

	for k, v := range data {
		t.Run(k, func(t *testing.T) {
			assert.Equal(t, v, Floor(decimal.RequireFromString(k), 2).String(), "should be floor")
		})
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "150%", Percent(decimal.RequireFromString("1.5"), 2))
	assert.Equal(t, "2.5%", Percent(decimal.RequireFromString("0.025"), 2))
}
