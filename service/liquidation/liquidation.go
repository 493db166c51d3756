package liquidation

import (
	"context"
	"fmt"
	"time"

	"cdp/core"
	"cdp/pkg/ray"
	"cdp/service/ledger"

	"github.com/holiman/uint256"
)

const (
	// SeizureCap caps the seizure at the vault balance and clears a
	// proportionally smaller debt
	SeizureCap = "cap"
	// SeizureStrict fails with ErrInsufficientCollateralForSeizure instead
	SeizureStrict = "strict"
)

// Policy liquidation policy switches
type Policy struct {
	Strict bool
	// WriteOffBadDebt clears debt left on a vault whose collateral was
	// fully seized
	WriteOffBadDebt bool
}

// PolicyFromConfig reads the policy from the app config, defaulting to a
// capped seizure with bad debt write-off
func PolicyFromConfig(app core.App) Policy {
	p := Policy{
		Strict:          app.SeizurePolicy == SeizureStrict,
		WriteOffBadDebt: true,
	}

	if app.WriteOffBadDebt != nil {
		p.WriteOffBadDebt = *app.WriteOffBadDebt
	}

	return p
}

// Plan outcome of a liquidation, computed before any ledger change
type Plan struct {
	HealthBefore *uint256.Int
	// live debt cleared by the liquidator
	Repay *uint256.Int
	// collateral removed from the vault
	Seized       *uint256.Int
	ToLiquidator *uint256.Int
	ToInsurance  *uint256.Int
	// debt written off after the collateral ran out
	BadDebt *uint256.Int
	Capped  bool
}

// Engine liquidation engine
type Engine struct {
	ledger    *ledger.Ledger
	valuation core.Valuation
	policy    Policy
}

// New new liquidation engine
func New(l *ledger.Ledger, valuation core.Valuation, policy Policy) *Engine {
	return &Engine{
		ledger:    l,
		valuation: valuation,
		policy:    policy,
	}
}

// HealthFactor value / (debt * liquidationRatio) in RAY. Zero debt is
// always healthy and yields ray.Max.
func HealthFactor(value, debt, liquidationRatio *uint256.Int) (*uint256.Int, error) {
	if debt.IsZero() {
		return ray.Copy(ray.Max), nil
	}

	denominator, overflow := new(uint256.Int).MulOverflow(debt, liquidationRatio)
	if overflow {
		return nil, core.ErrArithmeticOverflow
	}

	return ray.MulDiv(value, ray.HealthScale(), denominator)
}

// Health health factor of vault at the current index of cfg
func (e *Engine) Health(ctx context.Context, vault *core.Vault, cfg *core.CollateralConfig) (*uint256.Int, error) {
	debt, err := ledger.LiveDebt(vault, cfg)
	if err != nil {
		return nil, err
	}

	if debt.IsZero() {
		return ray.Copy(ray.Max), nil
	}

	value, err := e.valuation.ConvertTo(ctx, vault.CollateralType, vault.CollateralBalance)
	if err != nil {
		return nil, err
	}

	return HealthFactor(value, debt, cfg.LiquidationRatio)
}

// Plan computes the liquidation of vault repaying requested live debt, or
// all of it when requested is nil. cfg must be refreshed. A plan either
// brings health back to one or more, or seizes all of the collateral.
func (e *Engine) Plan(ctx context.Context, vault *core.Vault, cfg *core.CollateralConfig, requested *uint256.Int) (*Plan, error) {
	debt, err := ledger.LiveDebt(vault, cfg)
	if err != nil {
		return nil, err
	}

	health, err := e.Health(ctx, vault, cfg)
	if err != nil {
		return nil, err
	}

	if !health.Lt(ray.RAY) {
		return nil, core.ErrNotLiquidatable
	}

	repay := ray.Copy(debt)
	if requested != nil {
		if requested.IsZero() {
			return nil, core.ErrInvalidAmount
		}

		repay = ray.Min(requested, debt)
	}

	bonus, err := ray.Mul(repay, cfg.LiquidationBonus)
	if err != nil {
		return nil, err
	}

	grossValue, err := ray.Add(repay, bonus)
	if err != nil {
		return nil, err
	}

	seized, err := e.valuation.ConvertFrom(ctx, vault.CollateralType, grossValue)
	if err != nil {
		return nil, err
	}

	plan := &Plan{HealthBefore: health, Repay: repay, BadDebt: ray.Zero()}

	balance := ray.Copy(vault.CollateralBalance)
	if seized.Gt(balance) {
		if e.policy.Strict {
			return nil, core.ErrInsufficientCollateralForSeizure
		}

		if repay, err = ray.MulDiv(repay, balance, seized); err != nil {
			return nil, err
		}

		plan.Repay = repay
		plan.Capped = true
		seized = balance
	}

	fee, err := ray.Mul(seized, cfg.LiquidationFee)
	if err != nil {
		return nil, err
	}

	plan.Seized = seized
	plan.ToInsurance = fee
	plan.ToLiquidator = new(uint256.Int).Sub(seized, fee)

	exhausted := seized.Eq(balance)
	if e.policy.WriteOffBadDebt && exhausted {
		plan.BadDebt = new(uint256.Int).Sub(debt, repay)
	}

	if !exhausted {
		if err := e.requireRestored(ctx, vault, cfg, debt, plan); err != nil {
			return nil, err
		}
	}

	return plan, nil
}

// requireRestored rejects a plan that leaves collateral in the vault while
// its health stays below one
func (e *Engine) requireRestored(ctx context.Context, vault *core.Vault, cfg *core.CollateralConfig, debt *uint256.Int, plan *Plan) error {
	debtAfter := new(uint256.Int).Sub(debt, plan.Repay)
	if debtAfter.IsZero() {
		return nil
	}

	balanceAfter := new(uint256.Int).Sub(vault.CollateralBalance, plan.Seized)
	value, err := e.valuation.ConvertTo(ctx, vault.CollateralType, balanceAfter)
	if err != nil {
		return err
	}

	health, err := HealthFactor(value, debtAfter, cfg.LiquidationRatio)
	if err != nil {
		return err
	}

	if health.Lt(ray.RAY) {
		return core.ErrLiquidationTooSmall
	}

	return nil
}

// Liquidate plans the liquidation and applies it to the ledger: the vault
// loses the seized collateral and the repaid plus written off debt, and
// cfg.BadDebt grows by the write off. Token movements are left to the caller.
func (e *Engine) Liquidate(ctx context.Context, vault *core.Vault, cfg *core.CollateralConfig, requested *uint256.Int, now time.Time) (*Plan, error) {
	plan, err := e.Plan(ctx, vault, cfg, requested)
	if err != nil {
		return nil, err
	}

	if err := e.ledger.AdjustCollateral(ctx, vault, ledger.Minus(plan.Seized)); err != nil {
		return nil, err
	}

	cleared, err := ray.Add(plan.Repay, plan.BadDebt)
	if err != nil {
		return nil, err
	}

	if !cleared.IsZero() {
		if _, err := e.ledger.AdjustBaseDebt(ctx, vault, cfg, ledger.Minus(cleared), now); err != nil {
			return nil, fmt.Errorf("clear debt: %w", err)
		}
	}

	if !plan.BadDebt.IsZero() {
		if cfg.BadDebt, err = ray.Add(ray.Copy(cfg.BadDebt), plan.BadDebt); err != nil {
			return nil, err
		}
	}

	return plan, nil
}
