package collateral

import (
	"context"
	"fmt"
	"time"

	"cdp/core"
	"cdp/internal/accrual"
	"cdp/pkg/ray"

	"github.com/asaskevich/govalidator"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Service risk config registry
type Service struct {
	collaterals core.CollateralStore
	authorizer  core.Authorizer
}

// New new collateral service
func New(collaterals core.CollateralStore, authorizer core.Authorizer) *Service {
	return &Service{
		collaterals: collaterals,
		authorizer:  authorizer,
	}
}

// ValidType reports whether collateralType is usable as an id
func ValidType(collateralType string) bool {
	return govalidator.IsAlphanumeric(collateralType) && govalidator.ByteLength(collateralType, "1", "20")
}

// Validate checks min ratio >= liquidation ratio >= 1, fees and bonus in
// [0, 1] and a borrow rate of at least 1.
func Validate(p core.CollateralParams) error {
	for _, v := range []*uint256.Int{
		p.DebtLimit,
		p.LiquidationRatio,
		p.MinCollateralRatio,
		p.BorrowRate,
		p.OriginationFee,
		p.LiquidationBonus,
		p.LiquidationFee,
	} {
		if v == nil {
			return fmt.Errorf("missing risk parameter: %w", core.ErrInvalidParameter)
		}
	}

	if p.LiquidationRatio.Lt(ray.RAY) {
		return fmt.Errorf("liquidation ratio below 1: %w", core.ErrInvalidParameter)
	}

	if p.MinCollateralRatio.Lt(p.LiquidationRatio) {
		return fmt.Errorf("min collateral ratio below liquidation ratio: %w", core.ErrInvalidParameter)
	}

	// a rate below one would shrink the index
	if p.BorrowRate.Lt(ray.RAY) {
		return fmt.Errorf("borrow rate below 1: %w", core.ErrInvalidParameter)
	}

	if p.OriginationFee.Gt(ray.RAY) || p.LiquidationBonus.Gt(ray.RAY) || p.LiquidationFee.Gt(ray.RAY) {
		return fmt.Errorf("fee or bonus above 1: %w", core.ErrInvalidParameter)
	}

	return nil
}

// ParamsFromConfig converts a human-unit config entry
func ParamsFromConfig(c core.Collateral) (core.CollateralParams, error) {
	var p core.CollateralParams

	fields := []struct {
		dst      **uint256.Int
		src      decimal.Decimal
		decimals int32
	}{
		{&p.DebtLimit, c.DebtLimit, ray.WadDecimals},
		{&p.LiquidationRatio, c.LiquidationRatio, ray.RayDecimals},
		{&p.MinCollateralRatio, c.MinCollateralRatio, ray.RayDecimals},
		{&p.BorrowRate, c.BorrowRate, ray.RayDecimals},
		{&p.OriginationFee, c.OriginationFee, ray.RayDecimals},
		{&p.LiquidationBonus, c.LiquidationBonus, ray.RayDecimals},
		{&p.LiquidationFee, c.LiquidationFee, ray.RayDecimals},
	}

	for _, f := range fields {
		v, err := ray.FromDecimal(f.src, f.decimals)
		if err != nil {
			return p, err
		}

		*f.dst = v
	}

	return p, nil
}

// Get fails with ErrUnknownCollateral if absent
func (s *Service) Get(ctx context.Context, collateralType string) (*core.CollateralConfig, error) {
	return s.collaterals.Find(ctx, collateralType)
}

// List all registered collateral types
func (s *Service) List(ctx context.Context) ([]*core.CollateralConfig, error) {
	return s.collaterals.All(ctx)
}

// Set creates or updates the risk parameters of collateralType. An existing
// index is refreshed at the old rate before a new rate takes effect.
func (s *Service) Set(ctx context.Context, caller, collateralType string, p core.CollateralParams, now time.Time) (*core.CollateralConfig, error) {
	if !s.authorizer.Authorize(ctx, caller, core.ActionManageCollateral, "") {
		return nil, core.ErrAuthorization
	}

	return s.set(ctx, collateralType, p, now)
}

func (s *Service) set(ctx context.Context, collateralType string, p core.CollateralParams, now time.Time) (*core.CollateralConfig, error) {
	log := logger.FromContext(ctx).WithField("collateral", collateralType)

	if !ValidType(collateralType) {
		return nil, fmt.Errorf("collateral type %q: %w", collateralType, core.ErrInvalidParameter)
	}

	if err := Validate(p); err != nil {
		return nil, err
	}

	cfg, err := s.collaterals.Find(ctx, collateralType)
	if err == core.ErrUnknownCollateral {
		cfg = &core.CollateralConfig{
			CollateralType:      collateralType,
			CumulativeRateIndex: ray.One(),
			LastRefresh:         time.Unix(now.Unix(), 0).UTC(),
			TotalBaseDebt:       ray.Zero(),
			PendingIncome:       ray.Zero(),
			BadDebt:             ray.Zero(),
		}
		cfg.Apply(p)

		if err := s.collaterals.Create(ctx, cfg); err != nil {
			log.WithError(err).Errorln("collaterals.Create")
			return nil, err
		}

		log.Infoln("collateral registered")
		return cfg, nil
	}

	if err != nil {
		return nil, err
	}

	if _, err := accrual.Refresh(cfg, now); err != nil {
		return nil, err
	}

	cfg.Apply(p)
	if err := s.collaterals.Update(ctx, cfg); err != nil {
		log.WithError(err).Errorln("collaterals.Update")
		return nil, err
	}

	log.Infoln("collateral updated")
	return cfg, nil
}

// Seed registers the configured collateral types that do not exist yet.
// Existing entries are left untouched so governance changes survive restarts.
func (s *Service) Seed(ctx context.Context, collaterals []core.Collateral, now time.Time) error {
	for _, c := range collaterals {
		if _, err := s.collaterals.Find(ctx, c.Type); err == nil {
			continue
		} else if err != core.ErrUnknownCollateral {
			return err
		}

		p, err := ParamsFromConfig(c)
		if err != nil {
			return fmt.Errorf("collateral %s: %w", c.Type, err)
		}

		if _, err := s.set(ctx, c.Type, p, now); err != nil {
			return fmt.Errorf("collateral %s: %w", c.Type, err)
		}
	}

	return nil
}

// Refresh advances the index of cfg to now and persists it. The returned
// income is the interest accrued since the previous refresh.
func (s *Service) Refresh(ctx context.Context, cfg *core.CollateralConfig, now time.Time) (*uint256.Int, error) {
	income, err := accrual.Refresh(cfg, now)
	if err != nil {
		return nil, err
	}

	if err := s.collaterals.Update(ctx, cfg); err != nil {
		return nil, err
	}

	return income, nil
}

// Save persists cfg
func (s *Service) Save(ctx context.Context, cfg *core.CollateralConfig) error {
	return s.collaterals.Update(ctx, cfg)
}

// AggregateDebt live debt of every vault of cfg's type
func AggregateDebt(cfg *core.CollateralConfig) (*uint256.Int, error) {
	return ray.Mul(ray.Copy(cfg.TotalBaseDebt), cfg.CumulativeRateIndex)
}
