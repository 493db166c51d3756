package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"cdp/core"
	"cdp/handler/views"
	"cdp/service/collateral"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var collateralCmd = &cobra.Command{
	Use:     "collateral",
	Aliases: []string{"c"},
	Short:   "manage collateral types",
}

var listCollateralCmd = &cobra.Command{
	Use:   "list",
	Short: "list collateral types with their indexes advanced to now",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		s := provideStores(database)
		vaults := provideVaultService(s, provideAccess(s), provideOracle(), provideBank())

		cfgs, err := vaults.Collaterals(ctx)
		if err != nil {
			cmd.PrintErrln("list collaterals", err)
			return
		}

		for _, cfg := range cfgs {
			view, err := views.CollateralView(cfg)
			if err != nil {
				cmd.PrintErrln("render", cfg.CollateralType, err)
				return
			}

			data, _ := json.Marshal(view)
			cmd.Println(string(data))
		}
	},
}

var setCollateralCmd = &cobra.Command{
	Use:   "set <type>",
	Short: "register or update the risk parameters of a collateral type",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		c := core.Collateral{Type: strings.ToUpper(args[0])}
		fields := []struct {
			flag string
			dst  *decimal.Decimal
		}{
			{"debt-limit", &c.DebtLimit},
			{"liquidation-ratio", &c.LiquidationRatio},
			{"min-ratio", &c.MinCollateralRatio},
			{"rate", &c.BorrowRate},
			{"origination-fee", &c.OriginationFee},
			{"bonus", &c.LiquidationBonus},
			{"liquidation-fee", &c.LiquidationFee},
		}

		for _, f := range fields {
			v, _ := cmd.Flags().GetString(f.flag)
			d, err := decimal.NewFromString(v)
			if err != nil {
				cmd.PrintErrln("invalid", f.flag, err)
				return
			}

			*f.dst = d
		}

		p, err := collateral.ParamsFromConfig(c)
		if err != nil {
			cmd.PrintErrln("convert params", err)
			return
		}

		if len(cfg.Admins) == 0 {
			cmd.PrintErrln("no admin configured")
			return
		}

		database := provideDatabase()
		defer database.Close()

		s := provideStores(database)
		vaults := provideVaultService(s, provideAccess(s), provideOracle(), provideBank())

		result, err := vaults.SetCollateral(ctx, cfg.Admins[0], c.Type, p)
		if err != nil {
			cmd.PrintErrln("set collateral", err)
			return
		}

		cmd.Println("collateral", result.CollateralType, "updated, index", result.CumulativeRateIndex.Dec())
	},
}

var refreshCollateralCmd = &cobra.Command{
	Use:   "refresh <type>",
	Short: "advance the rate index of a collateral type to now",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		s := provideStores(database)
		vaults := provideVaultService(s, provideAccess(s), provideOracle(), provideBank())

		event, err := vaults.Refresh(ctx, "cli", strings.ToUpper(args[0]))
		if err != nil {
			cmd.PrintErrln("refresh", err)
			return
		}

		if event == nil {
			cmd.Println("already refreshed")
			return
		}

		cmd.Println(fmt.Sprintf("refreshed at event #%d", event.ID))
	},
}

func init() {
	rootCmd.AddCommand(collateralCmd)
	collateralCmd.AddCommand(listCollateralCmd)
	collateralCmd.AddCommand(refreshCollateralCmd)

	collateralCmd.AddCommand(setCollateralCmd)
	setCollateralCmd.Flags().String("debt-limit", "0", "debt limit in stable units")
	setCollateralCmd.Flags().String("liquidation-ratio", "1.5", "liquidation ratio")
	setCollateralCmd.Flags().String("min-ratio", "1.5", "min collateral ratio")
	setCollateralCmd.Flags().String("rate", "1", "per second borrow rate")
	setCollateralCmd.Flags().String("origination-fee", "0", "origination fee")
	setCollateralCmd.Flags().String("bonus", "0.05", "liquidation bonus")
	setCollateralCmd.Flags().String("liquidation-fee", "0", "share of seized collateral to the insurance reserve")
}
