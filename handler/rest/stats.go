package rest

import (
	"net/http"

	"cdp/core"
	"cdp/handler/param"
	"cdp/handler/render"
	"cdp/handler/views"
	"cdp/pkg/ray"
	"cdp/service/collateral"
	"cdp/service/vault"

	"github.com/shopspring/decimal"
)

const maxEventLimit = 500

func statsHandler(vaults *vault.Service, system core.SystemStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		count, err := vaults.VaultCount(ctx)
		if err != nil {
			render.Error(w, err)
			return
		}

		cfgs, err := vaults.Collaterals(ctx)
		if err != nil {
			render.Error(w, err)
			return
		}

		paused, err := system.Paused(ctx)
		if err != nil {
			render.Error(w, err)
			return
		}

		stats := views.Stats{
			Vaults:      count,
			TotalDebt:   decimal.Zero,
			Paused:      paused,
			Collaterals: make(map[string]decimal.Decimal, len(cfgs)),
		}

		for _, cfg := range cfgs {
			debt, err := collateral.AggregateDebt(cfg)
			if err != nil {
				render.Error(w, err)
				return
			}

			d := ray.ToDecimal(debt, ray.WadDecimals)
			stats.Collaterals[cfg.CollateralType] = d
			stats.TotalDebt = stats.TotalDebt.Add(d)
		}

		render.JSON(w, stats)
	}
}

func eventsHandler(vaults *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			VaultID string `json:"vault_id" valid:"uuid"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.Error(w, err)
			return
		}

		offset, err := param.Int64(r, "offset", 0)
		if err != nil {
			render.Error(w, err)
			return
		}

		limit, err := param.Int(r, "limit", 50)
		if err != nil {
			render.Error(w, err)
			return
		}

		if limit <= 0 || limit > maxEventLimit {
			limit = maxEventLimit
		}

		events, err := vaults.Events(r.Context(), params.VaultID, offset, limit)
		if err != nil {
			render.Error(w, err)
			return
		}

		items := make([]*views.Event, 0, len(events))
		for _, e := range events {
			items = append(items, views.EventView(e))
		}

		render.JSON(w, items)
	}
}
