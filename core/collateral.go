package core

import (
	"context"
	"time"

	"github.com/holiman/uint256"
)

// CollateralConfig risk parameters and accrual state of one collateral type
type CollateralConfig struct {
	ID             uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	CollateralType string `sql:"size:20;unique_index:idx_collaterals_type" json:"collateral_type"`
	// max aggregate live debt mintable against this type, WAD
	DebtLimit *uint256.Int `sql:"type:varchar(78)" json:"debt_limit"`
	// collateral value / debt below which liquidation is permitted, RAY
	LiquidationRatio *uint256.Int `sql:"type:varchar(78)" json:"liquidation_ratio"`
	// collateral value / debt a vault must keep after borrow or withdraw, RAY
	MinCollateralRatio *uint256.Int `sql:"type:varchar(78)" json:"min_collateral_ratio"`
	// per-second compounding rate, RAY
	BorrowRate *uint256.Int `sql:"type:varchar(78)" json:"borrow_rate"`
	// one-time fee taken at borrow time, RAY
	OriginationFee *uint256.Int `sql:"type:varchar(78)" json:"origination_fee"`
	// liquidator discount, RAY
	LiquidationBonus *uint256.Int `sql:"type:varchar(78)" json:"liquidation_bonus"`
	// insurance reserve cut of seized collateral, RAY
	LiquidationFee *uint256.Int `sql:"type:varchar(78)" json:"liquidation_fee"`

	CumulativeRateIndex *uint256.Int `sql:"type:varchar(78)" json:"cumulative_rate_index"`
	LastRefresh         time.Time    `json:"last_refresh"`

	// sum of base debt over every vault of this type
	TotalBaseDebt *uint256.Int `sql:"type:varchar(78)" json:"total_base_debt"`
	// interest accrued by refreshes and not yet collected, WAD
	PendingIncome *uint256.Int `sql:"type:varchar(78)" json:"pending_income"`
	// debt written off by liquidations that exhausted collateral, WAD
	BadDebt *uint256.Int `sql:"type:varchar(78)" json:"bad_debt"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName gorm table name
func (CollateralConfig) TableName() string {
	return "collaterals"
}

// CollateralParams governance-settable part of CollateralConfig
type CollateralParams struct {
	DebtLimit          *uint256.Int `json:"debt_limit"`
	LiquidationRatio   *uint256.Int `json:"liquidation_ratio"`
	MinCollateralRatio *uint256.Int `json:"min_collateral_ratio"`
	BorrowRate         *uint256.Int `json:"borrow_rate"`
	OriginationFee     *uint256.Int `json:"origination_fee"`
	LiquidationBonus   *uint256.Int `json:"liquidation_bonus"`
	LiquidationFee     *uint256.Int `json:"liquidation_fee"`
}

// Params extracts the settable parameters
func (c *CollateralConfig) Params() CollateralParams {
	return CollateralParams{
		DebtLimit:          c.DebtLimit,
		LiquidationRatio:   c.LiquidationRatio,
		MinCollateralRatio: c.MinCollateralRatio,
		BorrowRate:         c.BorrowRate,
		OriginationFee:     c.OriginationFee,
		LiquidationBonus:   c.LiquidationBonus,
		LiquidationFee:     c.LiquidationFee,
	}
}

// Apply copies params into the config
func (c *CollateralConfig) Apply(p CollateralParams) {
	c.DebtLimit = clone(p.DebtLimit)
	c.LiquidationRatio = clone(p.LiquidationRatio)
	c.MinCollateralRatio = clone(p.MinCollateralRatio)
	c.BorrowRate = clone(p.BorrowRate)
	c.OriginationFee = clone(p.OriginationFee)
	c.LiquidationBonus = clone(p.LiquidationBonus)
	c.LiquidationFee = clone(p.LiquidationFee)
}

// Clone deep copy
func (c *CollateralConfig) Clone() *CollateralConfig {
	cp := *c
	cp.Apply(c.Params())
	cp.CumulativeRateIndex = clone(c.CumulativeRateIndex)
	cp.TotalBaseDebt = clone(c.TotalBaseDebt)
	cp.PendingIncome = clone(c.PendingIncome)
	cp.BadDebt = clone(c.BadDebt)
	return &cp
}

// RefreshedAt reports whether the accrual index is current as of now
func (c *CollateralConfig) RefreshedAt(now time.Time) bool {
	return c.LastRefresh.Unix() >= now.Unix()
}

// CollateralStore collateral config store
type CollateralStore interface {
	Create(ctx context.Context, cfg *CollateralConfig) error
	Find(ctx context.Context, collateralType string) (*CollateralConfig, error)
	All(ctx context.Context) ([]*CollateralConfig, error)
	Update(ctx context.Context, cfg *CollateralConfig) error
}

func clone(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}

	return new(uint256.Int).Set(x)
}
