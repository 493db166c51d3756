package core

import (
	"context"

	"github.com/holiman/uint256"
)

// TokenService moves collateral between users and vault custody and
// mints / burns the stable asset. Implementations must not call back into
// the vault service.
type TokenService interface {
	TransferCollateralIn(ctx context.Context, from, collateralType string, amount *uint256.Int) error
	TransferCollateralOut(ctx context.Context, to, collateralType string, amount *uint256.Int) error
	Mint(ctx context.Context, to string, amount *uint256.Int) error
	Burn(ctx context.Context, from string, amount *uint256.Int) error
}

// IncomeKind protocol income source
type IncomeKind string

const (
	IncomeOriginationFee IncomeKind = "origination_fee"
	IncomeInterest       IncomeKind = "interest"
)

// Income protocol income routed to the fee sink
type Income struct {
	CollateralType string       `json:"collateral_type"`
	Kind           IncomeKind   `json:"kind"`
	Amount         *uint256.Int `json:"amount"`
}

// FeeSink receives protocol income. Income is minted to Address before
// OnIncome is called.
type FeeSink interface {
	Address() string
	OnIncome(ctx context.Context, income *Income)
}

// InsuranceReserve receives the liquidation fee cut and absorbs bad debt
type InsuranceReserve interface {
	Address() string
	OnBadDebt(ctx context.Context, collateralType string, amount *uint256.Int)
}
