package core

import (
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Config cdp config
type Config struct {
	App         App          `json:"app"`
	DB          db.Config    `json:"db"`
	Oracle      Oracle       `json:"oracle"`
	Admins      []string     `json:"admins"`
	Collaterals []Collateral `json:"collaterals"`
}

// IsAdmin check if the user is admin
func (c *Config) IsAdmin(userID string) bool {
	if len(c.Admins) <= 0 {
		return false
	}

	for _, a := range c.Admins {
		if a == userID {
			return true
		}
	}

	return false
}

// App app config
type App struct {
	StableSymbol     string `json:"stable_symbol"`
	FeeSinkAccount   string `json:"fee_sink_account"`
	InsuranceAccount string `json:"insurance_account"`
	// "cap" (default) or "strict"
	SeizurePolicy string `json:"seizure_policy"`
	// write off residual debt once a liquidation exhausts collateral
	WriteOffBadDebt *bool `json:"write_off_bad_debt"`
}

// Oracle price oracle config
type Oracle struct {
	EndPoint string `json:"end_point"`
	// seconds
	CacheTTL int64 `json:"cache_ttl"`
	MaxAge   int64 `json:"max_age"`
	// fixed prices used when no endpoint is configured
	Prices map[string]decimal.Decimal `json:"prices"`
}

// Collateral collateral risk config in human units, seeded at startup
type Collateral struct {
	Type               string          `json:"type"`
	DebtLimit          decimal.Decimal `json:"debt_limit"`
	LiquidationRatio   decimal.Decimal `json:"liquidation_ratio"`
	MinCollateralRatio decimal.Decimal `json:"min_collateral_ratio"`
	BorrowRate         decimal.Decimal `json:"borrow_rate"`
	OriginationFee     decimal.Decimal `json:"origination_fee"`
	LiquidationBonus   decimal.Decimal `json:"liquidation_bonus"`
	LiquidationFee     decimal.Decimal `json:"liquidation_fee"`
}
