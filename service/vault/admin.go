package vault

import (
	"context"

	"cdp/core"
	"cdp/internal/accrual"
	"cdp/pkg/ray"

	"github.com/holiman/uint256"
)

// Refresh advances the rate index of collateralType to now. Anyone may call
// it, also while paused.
func (s *Service) Refresh(ctx context.Context, caller, collateralType string) (*core.Event, error) {
	return s.run(ctx, core.EventRefresh, caller, func(ctx context.Context, op *operation) error {
		cfg, err := s.collaterals.Get(ctx, collateralType)
		if err != nil {
			return err
		}

		if cfg.RefreshedAt(op.now) {
			return nil
		}

		income, err := accrual.Refresh(cfg, op.now)
		if err != nil {
			return err
		}

		op.record(nil, collateralType)
		op.extra.Put(core.EventKeyIndex, cfg.CumulativeRateIndex.Dec())
		op.extra.Put(core.EventKeyIncome, income.Dec())
		return s.saveCollateral(ctx, cfg)
	})
}

// CollectIncome mints the interest accrued on collateralType to the fee sink
func (s *Service) CollectIncome(ctx context.Context, caller, collateralType string) (*uint256.Int, error) {
	var collected *uint256.Int

	_, err := s.run(ctx, core.EventCollectIncome, caller, func(ctx context.Context, op *operation) error {
		if err := s.authorize(ctx, caller, core.ActionCollectIncome, ""); err != nil {
			return err
		}

		cfg, err := s.refresh(ctx, op, collateralType)
		if err != nil {
			return err
		}

		collected = ray.Copy(cfg.PendingIncome)
		cfg.PendingIncome = ray.Zero()
		if err := s.saveCollateral(ctx, cfg); err != nil {
			return err
		}

		event := op.record(nil, collateralType)
		event.Amount = collected
		if collected.IsZero() {
			return nil
		}

		sink := s.feeSink.Address()
		op.interact("mint income",
			func(ctx context.Context) error { return s.tokens.Mint(ctx, sink, collected) },
			func(ctx context.Context) error { return s.tokens.Burn(ctx, sink, collected) },
		)

		income := &core.Income{CollateralType: collateralType, Kind: core.IncomeInterest, Amount: collected}
		op.notify(func(ctx context.Context) { s.feeSink.OnIncome(ctx, income) })
		return nil
	})
	if err != nil {
		return nil, err
	}

	return collected, nil
}

// SetCollateral registers or updates the risk parameters of collateralType
func (s *Service) SetCollateral(ctx context.Context, caller, collateralType string, p core.CollateralParams) (*core.CollateralConfig, error) {
	var cfg *core.CollateralConfig

	_, err := s.run(ctx, core.EventSetCollateral, caller, func(ctx context.Context, op *operation) error {
		var err error
		if cfg, err = s.collaterals.Set(ctx, caller, collateralType, p, op.now); err != nil {
			return err
		}

		s.metrics.SetCollateral(cfg)
		op.record(nil, collateralType)
		op.extra.Put(core.EventKeyIndex, cfg.CumulativeRateIndex.Dec())
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Pause stops every mutating operation except refresh and governance
func (s *Service) Pause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, true)
}

// Unpause resumes operations
func (s *Service) Unpause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, false)
}

func (s *Service) setPaused(ctx context.Context, caller string, paused bool) error {
	_, err := s.run(ctx, core.EventPause, caller, func(ctx context.Context, op *operation) error {
		if err := s.authorize(ctx, caller, core.ActionPause, ""); err != nil {
			return err
		}

		if err := s.system.SetPaused(ctx, paused); err != nil {
			return err
		}

		op.record(nil, "")
		op.extra.Put(core.EventKeyPaused, paused)
		return nil
	})

	return err
}
