package config

import (
	"os"
	"path/filepath"
	"testing"

	"cdp/core"
	"cdp/service/liquidation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  stable_symbol: DAI
  seizure_policy: strict
admins:
  - admin
oracle:
  cache_ttl: 10
  prices:
    WETH: "2000"
collaterals:
  - type: WETH
    debt_limit: "1000000"
    liquidation_ratio: "1.3"
    min_collateral_ratio: "1.5"
    borrow_rate: "1.000000000627937192491029811"
`

func TestLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cdp.yaml")
	require.Nil(t, os.WriteFile(file, []byte(sample), 0o600))

	var cfg core.Config
	require.Nil(t, Load(file, &cfg))

	assert.Equal(t, "DAI", cfg.App.StableSymbol)
	assert.Equal(t, "fee-sink", cfg.App.FeeSinkAccount)
	assert.Equal(t, liquidation.SeizureStrict, cfg.App.SeizurePolicy)
	assert.True(t, cfg.IsAdmin("admin"))
	assert.Equal(t, int64(10), cfg.Oracle.CacheTTL)
	require.Len(t, cfg.Oracle.Prices, 1)
	for _, price := range cfg.Oracle.Prices {
		assert.True(t, price.Equal(decimal.NewFromInt(2000)))
	}

	require.Len(t, cfg.Collaterals, 1)
	assert.True(t, cfg.Collaterals[0].LiquidationRatio.Equal(decimal.RequireFromString("1.3")))
}

func TestDefaults(t *testing.T) {
	var cfg core.Config
	require.Nil(t, Load("", &cfg))
	assert.Equal(t, "USDM", cfg.App.StableSymbol)
	assert.Equal(t, liquidation.SeizureCap, cfg.App.SeizurePolicy)
}
