package views

import (
	"encoding/json"
	"time"

	"cdp/core"
	"cdp/internal/accrual"
	"cdp/pkg/number"
	"cdp/pkg/ray"
	"cdp/service/collateral"
	"cdp/service/vault"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

func wad(x *uint256.Int) decimal.Decimal {
	return ray.ToDecimal(x, ray.WadDecimals)
}

func rate(x *uint256.Int) decimal.Decimal {
	return ray.ToDecimal(x, ray.RayDecimals)
}

// Collateral collateral view in human units
type Collateral struct {
	Type               string          `json:"type"`
	DebtLimit          decimal.Decimal `json:"debt_limit"`
	Debt               decimal.Decimal `json:"debt"`
	LiquidationRatio   decimal.Decimal `json:"liquidation_ratio"`
	MinCollateralRatio decimal.Decimal `json:"min_collateral_ratio"`
	BorrowRate         decimal.Decimal `json:"borrow_rate"`
	BorrowAPY          decimal.Decimal `json:"borrow_apy"`
	BorrowAPYText      string          `json:"borrow_apy_text"`
	OriginationFee     decimal.Decimal `json:"origination_fee"`
	LiquidationBonus   decimal.Decimal `json:"liquidation_bonus"`
	LiquidationFee     decimal.Decimal `json:"liquidation_fee"`
	RateIndex          decimal.Decimal `json:"rate_index"`
	LastRefresh        time.Time       `json:"last_refresh"`
	PendingIncome      decimal.Decimal `json:"pending_income"`
	BadDebt            decimal.Decimal `json:"bad_debt"`
}

// CollateralView view of a refreshed cfg
func CollateralView(cfg *core.CollateralConfig) (*Collateral, error) {
	debt, err := collateral.AggregateDebt(cfg)
	if err != nil {
		return nil, err
	}

	annual, err := accrual.AnnualRate(cfg.BorrowRate)
	if err != nil {
		return nil, err
	}

	apy := number.Floor(rate(annual).Sub(decimal.NewFromInt(1)), 8)

	return &Collateral{
		Type:               cfg.CollateralType,
		DebtLimit:          wad(cfg.DebtLimit),
		Debt:               wad(debt),
		LiquidationRatio:   rate(cfg.LiquidationRatio),
		MinCollateralRatio: rate(cfg.MinCollateralRatio),
		BorrowRate:         rate(cfg.BorrowRate),
		BorrowAPY:          apy,
		BorrowAPYText:      number.Percent(apy, 2),
		OriginationFee:     rate(cfg.OriginationFee),
		LiquidationBonus:   rate(cfg.LiquidationBonus),
		LiquidationFee:     rate(cfg.LiquidationFee),
		RateIndex:          rate(cfg.CumulativeRateIndex),
		LastRefresh:        cfg.LastRefresh,
		PendingIncome:      wad(cfg.PendingIncome),
		BadDebt:            wad(cfg.BadDebt),
	}, nil
}

// Vault vault view in human units
type Vault struct {
	ID              string           `json:"id"`
	Owner           string           `json:"owner"`
	CollateralType  string           `json:"collateral_type"`
	Collateral      decimal.Decimal  `json:"collateral"`
	CollateralValue *decimal.Decimal `json:"collateral_value,omitempty"`
	Debt            decimal.Decimal  `json:"debt"`
	// absent when the vault has no debt
	Health  *decimal.Decimal `json:"health,omitempty"`
	Healthy bool             `json:"healthy"`
	// collateral price below which the vault can be liquidated
	LiquidationPrice *decimal.Decimal `json:"liquidation_price,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// VaultView view of v
func VaultView(v *vault.View) *Vault {
	view := &Vault{
		ID:             v.ID,
		Owner:          v.Owner,
		CollateralType: v.CollateralType,
		Collateral:     wad(v.CollateralBalance),
		Debt:           wad(v.Debt),
		Healthy:        v.Healthy(),
		CreatedAt:      v.CreatedAt,
	}

	if v.CollateralValue != nil {
		value := wad(v.CollateralValue)
		view.CollateralValue = &value
	}

	if v.Health != nil {
		health := rate(v.Health)
		view.Health = &health
	}

	if !v.Debt.IsZero() && !v.CollateralBalance.IsZero() && v.LiquidationRatio != nil {
		// rounded up so a price at or below it is always liquidatable
		price := number.Ceil(wad(v.Debt).Mul(rate(v.LiquidationRatio)).Div(wad(v.CollateralBalance)), 8)
		view.LiquidationPrice = &price
	}

	return view
}

// Event event view in human units
type Event struct {
	ID               int64            `json:"id"`
	CreatedAt        time.Time        `json:"created_at"`
	TraceID          string           `json:"trace_id"`
	Kind             core.EventKind   `json:"kind"`
	VaultID          string           `json:"vault_id,omitempty"`
	CollateralType   string           `json:"collateral_type,omitempty"`
	Caller           string           `json:"caller,omitempty"`
	Amount           decimal.Decimal  `json:"amount"`
	CollateralBefore decimal.Decimal  `json:"collateral_before"`
	CollateralAfter  decimal.Decimal  `json:"collateral_after"`
	DebtBefore       decimal.Decimal  `json:"debt_before"`
	DebtAfter        decimal.Decimal  `json:"debt_after"`
	Health           *decimal.Decimal `json:"health,omitempty"`
	Data             json.RawMessage  `json:"data,omitempty"`
}

// EventView view of e
func EventView(e *core.Event) *Event {
	view := &Event{
		ID:               e.ID,
		CreatedAt:        e.CreatedAt,
		TraceID:          e.TraceID,
		Kind:             e.Kind,
		VaultID:          e.VaultID,
		CollateralType:   e.CollateralType,
		Caller:           e.Caller,
		Amount:           wad(e.Amount),
		CollateralBefore: wad(e.CollateralBefore),
		CollateralAfter:  wad(e.CollateralAfter),
		DebtBefore:       wad(e.DebtBefore),
		DebtAfter:        wad(e.DebtAfter),
	}

	if e.Health != nil {
		health := rate(e.Health)
		view.Health = &health
	}

	if len(e.Data) > 0 {
		view.Data = json.RawMessage(e.Data)
	}

	return view
}

// Stats protocol totals
type Stats struct {
	Vaults      int64                      `json:"vaults"`
	TotalDebt   decimal.Decimal            `json:"total_debt"`
	Paused      bool                       `json:"paused"`
	Collaterals map[string]decimal.Decimal `json:"collaterals"`
}
