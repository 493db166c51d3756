package vault

import (
	"context"

	"cdp/core"
	"cdp/service/liquidation"

	"github.com/holiman/uint256"
)

// Liquidate repays amount of an unhealthy vault's debt on behalf of caller
// in exchange for its collateral at a discount. A nil amount liquidates the
// whole debt.
func (s *Service) Liquidate(ctx context.Context, caller, vaultID string, amount *uint256.Int) (*core.Event, error) {
	if amount != nil && amount.IsZero() {
		return nil, core.ErrInvalidAmount
	}

	return s.run(ctx, core.EventLiquidate, caller, func(ctx context.Context, op *operation) error {
		vault, cfg, err := s.load(ctx, op, vaultID)
		if err != nil {
			return err
		}

		if err := s.begin(op, vault, cfg, amount); err != nil {
			return err
		}

		plan, err := s.engine.Liquidate(ctx, vault, cfg, amount, op.now)
		if err != nil {
			return err
		}

		op.event.Amount = plan.Repay
		putPlan(op.extra, caller, plan)
		s.settle(op, vault.CollateralType, caller, plan)
		return s.finish(ctx, op, vault, cfg)
	})
}

// settle queues the token movements of a liquidation plan
func (s *Service) settle(op *operation, collateralType, liquidator string, plan *liquidation.Plan) {
	if repay := plan.Repay; !repay.IsZero() {
		op.interact("burn",
			func(ctx context.Context) error { return s.tokens.Burn(ctx, liquidator, repay) },
			func(ctx context.Context) error { return s.tokens.Mint(ctx, liquidator, repay) },
		)
	}

	if seized := plan.ToLiquidator; !seized.IsZero() {
		op.interact("transfer seized collateral",
			func(ctx context.Context) error {
				return s.tokens.TransferCollateralOut(ctx, liquidator, collateralType, seized)
			},
			func(ctx context.Context) error {
				return s.tokens.TransferCollateralIn(ctx, liquidator, collateralType, seized)
			},
		)
	}

	if cut := plan.ToInsurance; !cut.IsZero() {
		reserve := s.insurance.Address()
		op.interact("transfer liquidation fee",
			func(ctx context.Context) error {
				return s.tokens.TransferCollateralOut(ctx, reserve, collateralType, cut)
			},
			func(ctx context.Context) error {
				return s.tokens.TransferCollateralIn(ctx, reserve, collateralType, cut)
			},
		)
	}

	if bad := plan.BadDebt; !bad.IsZero() {
		op.notify(func(ctx context.Context) { s.insurance.OnBadDebt(ctx, collateralType, bad) })
	}
}

func putPlan(extra core.EventExtra, liquidator string, plan *liquidation.Plan) {
	extra.Put(core.EventKeyLiquidator, liquidator)
	extra.Put(core.EventKeyHealthBefore, plan.HealthBefore.Dec())
	extra.Put(core.EventKeySeized, plan.Seized.Dec())
	extra.Put(core.EventKeyLiquidatorCollateral, plan.ToLiquidator.Dec())
	extra.Put(core.EventKeyInsuranceCollateral, plan.ToInsurance.Dec())
	extra.Put(core.EventKeyBadDebt, plan.BadDebt.Dec())
	extra.Put(core.EventKeyCapped, plan.Capped)
}
