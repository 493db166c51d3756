package vault

import (
	"context"

	"cdp/core"
	"cdp/internal/accrual"
	"cdp/pkg/ray"
	"cdp/service/collateral"
	"cdp/service/ledger"
	"cdp/service/liquidation"

	"github.com/holiman/uint256"
)

// View vault with its derived figures as of now. Views refresh a copy of the
// index and never write.
type View struct {
	*core.Vault
	Debt *uint256.Int `json:"debt"`
	// nil when the vault has no debt
	Health *uint256.Int `json:"health,omitempty"`
	// nil when the collateral cannot be priced
	CollateralValue *uint256.Int `json:"collateral_value,omitempty"`
	// of the collateral type, for derived prices
	LiquidationRatio *uint256.Int `json:"-"`
}

// Healthy reports whether the vault cannot be liquidated
func (v *View) Healthy() bool {
	return v.Health == nil || !v.Health.Lt(ray.RAY)
}

// current loads cfg with its index advanced to now, without saving it
func (s *Service) current(ctx context.Context, collateralType string) (*core.CollateralConfig, error) {
	cfg, err := s.collaterals.Get(ctx, collateralType)
	if err != nil {
		return nil, err
	}

	if _, err := accrual.Refresh(cfg, s.clock()); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (s *Service) view(ctx context.Context, vault *core.Vault) (*View, error) {
	cfg, err := s.current(ctx, vault.CollateralType)
	if err != nil {
		return nil, err
	}

	debt, err := ledger.LiveDebt(vault, cfg)
	if err != nil {
		return nil, err
	}

	v := &View{Vault: vault, Debt: debt, LiquidationRatio: cfg.LiquidationRatio}
	if value, err := s.valuation.ConvertTo(ctx, vault.CollateralType, vault.CollateralBalance); err == nil {
		v.CollateralValue = value
	}

	if debt.IsZero() {
		return v, nil
	}

	if v.CollateralValue == nil {
		return nil, core.ErrPriceUnavailable
	}

	if v.Health, err = liquidation.HealthFactor(v.CollateralValue, debt, cfg.LiquidationRatio); err != nil {
		return nil, err
	}

	return v, nil
}

// Vault view by id
func (s *Service) Vault(ctx context.Context, vaultID string) (*View, error) {
	vault, err := s.ledger.Find(ctx, vaultID)
	if err != nil {
		return nil, err
	}

	return s.view(ctx, vault)
}

// VaultByOwner view of owner's vault in collateralType
func (s *Service) VaultByOwner(ctx context.Context, owner, collateralType string) (*View, error) {
	vault, err := s.ledger.FindByOwner(ctx, owner, collateralType)
	if err != nil {
		return nil, err
	}

	return s.view(ctx, vault)
}

// Debt live debt of the vault
func (s *Service) Debt(ctx context.Context, vaultID string) (*uint256.Int, error) {
	vault, err := s.ledger.Find(ctx, vaultID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.current(ctx, vault.CollateralType)
	if err != nil {
		return nil, err
	}

	return ledger.LiveDebt(vault, cfg)
}

// Health health factor of the vault, ray.Max without debt
func (s *Service) Health(ctx context.Context, vaultID string) (*uint256.Int, error) {
	v, err := s.Vault(ctx, vaultID)
	if err != nil {
		return nil, err
	}

	if v.Health == nil {
		return ray.Copy(ray.Max), nil
	}

	return v.Health, nil
}

// IsHealthy reports whether the vault cannot be liquidated
func (s *Service) IsHealthy(ctx context.Context, vaultID string) (bool, error) {
	v, err := s.Vault(ctx, vaultID)
	if err != nil {
		return false, err
	}

	return v.Healthy(), nil
}

// CollateralDebt aggregate live debt of collateralType
func (s *Service) CollateralDebt(ctx context.Context, collateralType string) (*uint256.Int, error) {
	cfg, err := s.current(ctx, collateralType)
	if err != nil {
		return nil, err
	}

	return collateral.AggregateDebt(cfg)
}

// TotalDebt aggregate live debt across every collateral type
func (s *Service) TotalDebt(ctx context.Context) (*uint256.Int, error) {
	cfgs, err := s.collaterals.List(ctx)
	if err != nil {
		return nil, err
	}

	total := ray.Zero()
	for _, cfg := range cfgs {
		debt, err := s.CollateralDebt(ctx, cfg.CollateralType)
		if err != nil {
			return nil, err
		}

		if total, err = ray.Add(total, debt); err != nil {
			return nil, err
		}
	}

	return total, nil
}

// VaultCount number of vaults ever opened
func (s *Service) VaultCount(ctx context.Context) (int64, error) {
	return s.ledger.Count(ctx)
}

// Collateral config of collateralType with its index advanced to now
func (s *Service) Collateral(ctx context.Context, collateralType string) (*core.CollateralConfig, error) {
	return s.current(ctx, collateralType)
}

// Collaterals every collateral config with indexes advanced to now
func (s *Service) Collaterals(ctx context.Context) ([]*core.CollateralConfig, error) {
	cfgs, err := s.collaterals.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	for _, cfg := range cfgs {
		if _, err := accrual.Refresh(cfg, now); err != nil {
			return nil, err
		}
	}

	return cfgs, nil
}

// Vaults of collateralType
func (s *Service) Vaults(ctx context.Context, collateralType string) ([]*View, error) {
	vaults, err := s.ledger.ListByCollateral(ctx, collateralType)
	if err != nil {
		return nil, err
	}

	views := make([]*View, 0, len(vaults))
	for _, vault := range vaults {
		v, err := s.view(ctx, vault)
		if err != nil {
			return nil, err
		}

		views = append(views, v)
	}

	return views, nil
}

// Events committed after fromID, optionally of one vault
func (s *Service) Events(ctx context.Context, vaultID string, fromID int64, limit int) ([]*core.Event, error) {
	return s.events.List(ctx, vaultID, fromID, limit)
}
