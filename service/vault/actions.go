package vault

import (
	"context"

	"cdp/core"
	"cdp/pkg/ray"
	"cdp/service/collateral"
	"cdp/service/ledger"

	"github.com/holiman/uint256"
)

// Open returns owner's vault of collateralType, creating it if needed
func (s *Service) Open(ctx context.Context, owner, collateralType string) (*core.Vault, error) {
	var vault *core.Vault

	_, err := s.run(ctx, core.EventOpen, owner, func(ctx context.Context, op *operation) error {
		cfg, err := s.refresh(ctx, op, collateralType)
		if err != nil {
			return err
		}

		v, created, err := s.ledger.GetOrCreate(ctx, owner, collateralType)
		if err != nil {
			return err
		}

		vault = v
		if created {
			op.record(v, collateralType)
			return s.finish(ctx, op, v, cfg)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// a replayed open did not run fn
	if vault == nil {
		v, err := s.VaultByOwner(ctx, owner, collateralType)
		if err != nil {
			return nil, err
		}

		vault = v.Vault
	}

	return vault, nil
}

// Deposit moves amount of collateral from caller into the vault. Anyone may
// deposit into any vault.
func (s *Service) Deposit(ctx context.Context, caller, vaultID string, amount *uint256.Int) (*core.Event, error) {
	if err := positive(amount); err != nil {
		return nil, err
	}

	return s.run(ctx, core.EventDeposit, caller, func(ctx context.Context, op *operation) error {
		vault, cfg, err := s.load(ctx, op, vaultID)
		if err != nil {
			return err
		}

		if err := s.begin(op, vault, cfg, amount); err != nil {
			return err
		}

		if err := s.deposit(ctx, op, vault, amount); err != nil {
			return err
		}

		return s.finish(ctx, op, vault, cfg)
	})
}

// DepositAndBorrow opens caller's vault of collateralType if needed, deposits
// collateral and borrows amount against it in one operation. Either amount
// may be zero but not both.
func (s *Service) DepositAndBorrow(ctx context.Context, caller, collateralType string, deposit, borrow *uint256.Int) (*core.Event, error) {
	deposit, borrow = ray.Copy(deposit), ray.Copy(borrow)
	if deposit.IsZero() && borrow.IsZero() {
		return nil, core.ErrInvalidAmount
	}

	return s.run(ctx, core.EventDepositBorrow, caller, func(ctx context.Context, op *operation) error {
		cfg, err := s.refresh(ctx, op, collateralType)
		if err != nil {
			return err
		}

		vault, _, err := s.ledger.GetOrCreate(ctx, caller, collateralType)
		if err != nil {
			return err
		}

		if err := s.begin(op, vault, cfg, borrow); err != nil {
			return err
		}

		op.extra.Put(core.EventKeyDeposit, deposit.Dec())

		if !deposit.IsZero() {
			if err := s.deposit(ctx, op, vault, deposit); err != nil {
				return err
			}
		}

		if !borrow.IsZero() {
			if err := s.borrow(ctx, op, vault, cfg, borrow); err != nil {
				return err
			}
		}

		return s.finish(ctx, op, vault, cfg)
	})
}

// Withdraw moves amount of collateral out of the vault to its owner. The
// vault must stay above the min collateral ratio while it carries debt.
func (s *Service) Withdraw(ctx context.Context, caller, vaultID string, amount *uint256.Int) (*core.Event, error) {
	if err := positive(amount); err != nil {
		return nil, err
	}

	return s.run(ctx, core.EventWithdraw, caller, func(ctx context.Context, op *operation) error {
		vault, cfg, err := s.load(ctx, op, vaultID)
		if err != nil {
			return err
		}

		if err := s.authorize(ctx, caller, core.ActionWithdraw, vault.Owner); err != nil {
			return err
		}

		if err := s.begin(op, vault, cfg, amount); err != nil {
			return err
		}

		if err := s.ledger.AdjustCollateral(ctx, vault, ledger.Minus(amount)); err != nil {
			return err
		}

		if err := s.requireRatio(ctx, vault, cfg); err != nil {
			return err
		}

		owner, collateralType := vault.Owner, vault.CollateralType
		op.interact("transfer collateral out",
			func(ctx context.Context) error {
				return s.tokens.TransferCollateralOut(ctx, owner, collateralType, amount)
			},
			func(ctx context.Context) error {
				return s.tokens.TransferCollateralIn(ctx, owner, collateralType, amount)
			},
		)

		return s.finish(ctx, op, vault, cfg)
	})
}

// Borrow mints amount of debt against the vault to its owner, net of the
// origination fee which goes to the fee sink
func (s *Service) Borrow(ctx context.Context, caller, vaultID string, amount *uint256.Int) (*core.Event, error) {
	if err := positive(amount); err != nil {
		return nil, err
	}

	return s.run(ctx, core.EventBorrow, caller, func(ctx context.Context, op *operation) error {
		vault, cfg, err := s.load(ctx, op, vaultID)
		if err != nil {
			return err
		}

		if err := s.begin(op, vault, cfg, amount); err != nil {
			return err
		}

		if err := s.borrow(ctx, op, vault, cfg, amount); err != nil {
			return err
		}

		return s.finish(ctx, op, vault, cfg)
	})
}

// Repay burns up to amount of stable asset from caller against the vault
// debt. Anyone may repay any vault; amount is capped at the live debt.
func (s *Service) Repay(ctx context.Context, caller, vaultID string, amount *uint256.Int) (*core.Event, error) {
	if err := positive(amount); err != nil {
		return nil, err
	}

	return s.repay(ctx, caller, vaultID, amount)
}

// RepayAll repays the whole live debt of the vault
func (s *Service) RepayAll(ctx context.Context, caller, vaultID string) (*core.Event, error) {
	return s.repay(ctx, caller, vaultID, nil)
}

func (s *Service) repay(ctx context.Context, caller, vaultID string, amount *uint256.Int) (*core.Event, error) {
	return s.run(ctx, core.EventRepay, caller, func(ctx context.Context, op *operation) error {
		vault, cfg, err := s.load(ctx, op, vaultID)
		if err != nil {
			return err
		}

		debt, err := ledger.LiveDebt(vault, cfg)
		if err != nil {
			return err
		}

		if debt.IsZero() {
			return core.ErrInsufficientDebt
		}

		repaid := ray.Copy(debt)
		if amount != nil {
			repaid = ray.Min(amount, debt)
		}

		if err := s.begin(op, vault, cfg, repaid); err != nil {
			return err
		}

		if _, err := s.ledger.AdjustBaseDebt(ctx, vault, cfg, ledger.Minus(repaid), op.now); err != nil {
			return err
		}

		op.interact("burn",
			func(ctx context.Context) error { return s.tokens.Burn(ctx, caller, repaid) },
			func(ctx context.Context) error { return s.tokens.Mint(ctx, caller, repaid) },
		)

		return s.finish(ctx, op, vault, cfg)
	})
}

func (s *Service) deposit(ctx context.Context, op *operation, vault *core.Vault, amount *uint256.Int) error {
	if err := s.ledger.AdjustCollateral(ctx, vault, ledger.Plus(amount)); err != nil {
		return err
	}

	from, collateralType := op.caller, vault.CollateralType
	op.interact("transfer collateral in",
		func(ctx context.Context) error {
			return s.tokens.TransferCollateralIn(ctx, from, collateralType, amount)
		},
		func(ctx context.Context) error {
			return s.tokens.TransferCollateralOut(ctx, from, collateralType, amount)
		},
	)

	return nil
}

func (s *Service) borrow(ctx context.Context, op *operation, vault *core.Vault, cfg *core.CollateralConfig, amount *uint256.Int) error {
	if err := s.authorize(ctx, op.caller, core.ActionBorrow, vault.Owner); err != nil {
		return err
	}

	aggregate, err := collateral.AggregateDebt(cfg)
	if err != nil {
		return err
	}

	if aggregate, err = ray.Add(aggregate, amount); err != nil {
		return err
	}

	if aggregate.Gt(cfg.DebtLimit) {
		return core.ErrDebtLimitExceeded
	}

	if _, err := s.ledger.AdjustBaseDebt(ctx, vault, cfg, ledger.Plus(amount), op.now); err != nil {
		return err
	}

	// rounding at the index may push the aggregate a unit past the pre-check
	if aggregate, err = collateral.AggregateDebt(cfg); err != nil {
		return err
	}

	if aggregate.Gt(cfg.DebtLimit) {
		return core.ErrDebtLimitExceeded
	}

	if err := s.requireRatio(ctx, vault, cfg); err != nil {
		return err
	}

	fee, err := ray.Mul(amount, cfg.OriginationFee)
	if err != nil {
		return err
	}

	net := new(uint256.Int).Sub(amount, fee)
	op.extra.Put(core.EventKeyFee, fee.Dec())
	op.extra.Put(core.EventKeyNetAmount, net.Dec())

	owner := vault.Owner
	if !net.IsZero() {
		op.interact("mint",
			func(ctx context.Context) error { return s.tokens.Mint(ctx, owner, net) },
			func(ctx context.Context) error { return s.tokens.Burn(ctx, owner, net) },
		)
	}

	if !fee.IsZero() {
		sink := s.feeSink.Address()
		op.interact("mint fee",
			func(ctx context.Context) error { return s.tokens.Mint(ctx, sink, fee) },
			func(ctx context.Context) error { return s.tokens.Burn(ctx, sink, fee) },
		)

		income := &core.Income{CollateralType: cfg.CollateralType, Kind: core.IncomeOriginationFee, Amount: fee}
		op.notify(func(ctx context.Context) { s.feeSink.OnIncome(ctx, income) })
	}

	return nil
}
