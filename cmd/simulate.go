package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"cdp/core"
	"cdp/handler/views"
	"cdp/pkg/ray"
	"cdp/service/access"
	"cdp/service/bank"
	"cdp/service/collateral"
	"cdp/service/oracle"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// simulateCmd replays a borrow and liquidation round on in-memory stores
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "run a borrow and liquidation scenario in memory and print its events",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		const (
			admin      = "admin"
			owner      = "alice"
			liquidator = "bob"
			weth       = "WETH"
		)

		prices := oracle.NewStatic(map[string]decimal.Decimal{weth: decimal.NewFromInt(2000)})
		tokens := bank.New(cfg.App.StableSymbol, cfg.App.FeeSinkAccount, cfg.App.InsuranceAccount)
		s := provideMemoryStores()
		acl := access.New([]string{admin}, s.delegations)

		now := time.Now()
		clock := func() time.Time { return now }
		vaults := provideVaultService(s, acl, oracle.New(prices, 0, 0), tokens).WithClock(clock)

		params, err := collateral.ParamsFromConfig(core.Collateral{
			Type:               weth,
			DebtLimit:          decimal.NewFromInt(1_000_000),
			LiquidationRatio:   decimal.RequireFromString("1.3"),
			MinCollateralRatio: decimal.RequireFromString("1.5"),
			BorrowRate:         decimal.RequireFromString("1.000000000627937192491029811"),
			LiquidationBonus:   decimal.RequireFromString("0.05"),
			LiquidationFee:     decimal.RequireFromString("0.1"),
		})
		if err != nil {
			cmd.PrintErrln("params", err)
			return
		}

		steps := []struct {
			name string
			run  func() error
		}{
			{"set collateral", func() error {
				_, err := vaults.SetCollateral(ctx, admin, weth, params)
				return err
			}},
			{"deposit 10 WETH and borrow 12000", func() error {
				tokens.Credit(weth, owner, ray.Wads("10"))
				_, err := vaults.DepositAndBorrow(ctx, owner, weth, ray.Wads("10"), ray.Wads("12000"))
				return err
			}},
			{"one month later, price drops to 1500", func() error {
				now = now.Add(30 * 24 * time.Hour)
				prices.Set(weth, decimal.NewFromInt(1500))
				_, err := vaults.Refresh(ctx, "keeper", weth)
				return err
			}},
			{"liquidate the whole debt", func() error {
				v, err := vaults.VaultByOwner(ctx, owner, weth)
				if err != nil {
					return err
				}

				tokens.Credit(cfg.App.StableSymbol, liquidator, ray.Wads("20000"))
				_, err = vaults.Liquidate(ctx, liquidator, v.ID, nil)
				return err
			}},
		}

		for _, step := range steps {
			if err := step.run(); err != nil {
				cmd.PrintErrln(step.name, "failed:", err)
				return
			}

			cmd.Println("-", step.name)
		}

		events, err := vaults.Events(ctx, "", 0, 100)
		if err != nil {
			cmd.PrintErrln("list events", err)
			return
		}

		for _, e := range events {
			data, _ := json.Marshal(views.EventView(e))
			cmd.Println(string(data))
		}

		cmd.Println(fmt.Sprintf("liquidator holds %s %s, insurance holds %s %s",
			ray.ToDecimal(tokens.Balance(weth, liquidator), ray.WadDecimals), weth,
			ray.ToDecimal(tokens.Balance(weth, cfg.App.InsuranceAccount), ray.WadDecimals), weth,
		))
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}
