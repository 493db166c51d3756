package core

import (
	"context"
	"time"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// PriceTicker price ticker
type PriceTicker struct {
	Provider       string          `json:"provider,omitempty"`
	CollateralType string          `json:"collateral_type,omitempty"`
	Price          decimal.Decimal `json:"price,omitempty"` // stable units per whole collateral unit
	Timestamp      time.Time       `json:"timestamp,omitempty"`
}

// PriceSource pulls the latest price of a collateral type
type PriceSource interface {
	PullPriceTicker(ctx context.Context, collateralType string) (*PriceTicker, error)
}

// Valuation converts between collateral amounts and stable-unit values.
// Both directions fail with ErrPriceUnavailable when no usable price exists.
type Valuation interface {
	// ConvertTo collateral amount -> stable value
	ConvertTo(ctx context.Context, collateralType string, amount *uint256.Int) (*uint256.Int, error)
	// ConvertFrom stable value -> collateral amount
	ConvertFrom(ctx context.Context, collateralType string, value *uint256.Int) (*uint256.Int, error)
}
