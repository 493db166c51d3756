package config

import (
	"cdp/core"
	"cdp/service/liquidation"
)

func defaults(cfg *core.Config) {
	if cfg.App.StableSymbol == "" {
		cfg.App.StableSymbol = "USDM"
	}

	if cfg.App.FeeSinkAccount == "" {
		cfg.App.FeeSinkAccount = "fee-sink"
	}

	if cfg.App.InsuranceAccount == "" {
		cfg.App.InsuranceAccount = "insurance"
	}

	if cfg.App.SeizurePolicy == "" {
		cfg.App.SeizurePolicy = liquidation.SeizureCap
	}
}
