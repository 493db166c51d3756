package ledger

import (
	"context"
	"fmt"
	"time"

	"cdp/core"
	"cdp/pkg/id"
	"cdp/pkg/ray"

	"github.com/holiman/uint256"
)

// Delta signed amount
type Delta struct {
	Amount   *uint256.Int
	Negative bool
}

// Plus positive delta
func Plus(amount *uint256.Int) Delta {
	return Delta{Amount: amount}
}

// Minus negative delta
func Minus(amount *uint256.Int) Delta {
	return Delta{Amount: amount, Negative: true}
}

// Ledger owns vault records and keeps the per-collateral base debt total in
// step with them
type Ledger struct {
	vaults core.VaultStore
}

// New new ledger
func New(vaults core.VaultStore) *Ledger {
	return &Ledger{vaults: vaults}
}

// Find vault by id
func (l *Ledger) Find(ctx context.Context, vaultID string) (*core.Vault, error) {
	return l.vaults.Find(ctx, vaultID)
}

// FindByOwner vault of owner in collateralType
func (l *Ledger) FindByOwner(ctx context.Context, owner, collateralType string) (*core.Vault, error) {
	return l.vaults.FindByOwner(ctx, owner, collateralType)
}

// ListByCollateral vaults of collateralType
func (l *Ledger) ListByCollateral(ctx context.Context, collateralType string) ([]*core.Vault, error) {
	return l.vaults.ListByCollateral(ctx, collateralType)
}

// Count number of vaults
func (l *Ledger) Count(ctx context.Context) (int64, error) {
	return l.vaults.Count(ctx)
}

// GetOrCreate returns the vault of (owner, collateralType), creating an
// empty one on first use. created reports whether it is new.
func (l *Ledger) GetOrCreate(ctx context.Context, owner, collateralType string) (vault *core.Vault, created bool, err error) {
	vault, err = l.vaults.FindByOwner(ctx, owner, collateralType)
	if err == nil {
		return vault, false, nil
	}

	if err != core.ErrVaultNotFound {
		return nil, false, err
	}

	vault = &core.Vault{
		ID:                id.VaultID(owner, collateralType),
		Owner:             owner,
		CollateralType:    collateralType,
		CollateralBalance: ray.Zero(),
		BaseDebt:          ray.Zero(),
	}

	if err := l.vaults.Create(ctx, vault); err != nil {
		return nil, false, err
	}

	return vault, true, nil
}

// AdjustCollateral applies delta to the vault balance and saves it. A
// withdrawal beyond the balance fails with ErrInsufficientCollateral.
func (l *Ledger) AdjustCollateral(ctx context.Context, vault *core.Vault, delta Delta) error {
	balance := ray.Copy(vault.CollateralBalance)

	if delta.Negative {
		if balance.Lt(delta.Amount) {
			return core.ErrInsufficientCollateral
		}

		balance.Sub(balance, delta.Amount)
	} else {
		var err error
		if balance, err = ray.Add(balance, delta.Amount); err != nil {
			return err
		}
	}

	vault.CollateralBalance = balance
	return l.vaults.Update(ctx, vault)
}

// AdjustBaseDebt converts a live debt delta into base debt at the current
// index of cfg, applies it to the vault and to cfg.TotalBaseDebt and saves
// the vault. cfg must already be refreshed to now; the caller saves cfg.
//
// Repaying exactly the live debt clears the base debt; repaying more fails
// with ErrInsufficientDebt. It returns the base debt delta applied.
func (l *Ledger) AdjustBaseDebt(ctx context.Context, vault *core.Vault, cfg *core.CollateralConfig, delta Delta, now time.Time) (*uint256.Int, error) {
	if !cfg.RefreshedAt(now) {
		return nil, core.ErrIndexNotRefreshed
	}

	if vault.CollateralType != cfg.CollateralType {
		return nil, fmt.Errorf("vault %s is not %s: %w", vault.ID, cfg.CollateralType, core.ErrInvalidParameter)
	}

	base := ray.Copy(vault.BaseDebt)
	total := ray.Copy(cfg.TotalBaseDebt)

	var change *uint256.Int
	if delta.Negative {
		live, err := LiveDebt(vault, cfg)
		if err != nil {
			return nil, err
		}

		switch delta.Amount.Cmp(live) {
		case 1:
			return nil, core.ErrInsufficientDebt
		case 0:
			change = ray.Copy(base)
		default:
			if change, err = ray.Div(delta.Amount, cfg.CumulativeRateIndex); err != nil {
				return nil, err
			}

			change = ray.Min(change, base)
		}

		base.Sub(base, change)
		if total, err = ray.Sub(total, change); err != nil {
			return nil, err
		}
	} else {
		var err error
		if change, err = ray.Div(delta.Amount, cfg.CumulativeRateIndex); err != nil {
			return nil, err
		}

		if base, err = ray.Add(base, change); err != nil {
			return nil, err
		}

		if total, err = ray.Add(total, change); err != nil {
			return nil, err
		}
	}

	vault.BaseDebt = base
	if err := l.vaults.Update(ctx, vault); err != nil {
		return nil, err
	}

	cfg.TotalBaseDebt = total
	return change, nil
}

// LiveDebt base debt scaled by the current index of cfg
func LiveDebt(vault *core.Vault, cfg *core.CollateralConfig) (*uint256.Int, error) {
	return ray.Mul(ray.Copy(vault.BaseDebt), cfg.CumulativeRateIndex)
}
