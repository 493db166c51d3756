package rest

import (
	"context"
	"net/http"
	"strings"

	"cdp/core"
	"cdp/handler/param"
	"cdp/handler/render"
	"cdp/handler/views"
	"cdp/pkg/ray"
	"cdp/service/collateral"
	"cdp/service/vault"

	"github.com/go-chi/chi"
)

func collateralType(r *http.Request) string {
	return strings.ToUpper(chi.URLParam(r, "type"))
}

func collateralsHandler(vaults *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfgs, err := vaults.Collaterals(r.Context())
		if err != nil {
			render.Error(w, err)
			return
		}

		items := make([]*views.Collateral, 0, len(cfgs))
		for _, cfg := range cfgs {
			view, err := views.CollateralView(cfg)
			if err != nil {
				render.Error(w, err)
				return
			}

			items = append(items, view)
		}

		render.JSON(w, items)
	}
}

func collateralHandler(vaults *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := vaults.Collateral(r.Context(), collateralType(r))
		if err != nil {
			render.Error(w, err)
			return
		}

		view, err := views.CollateralView(cfg)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, view)
	}
}

func refreshHandler(vaults *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := vaults.Refresh(r.Context(), caller(r), collateralType(r))
		if err != nil {
			render.Error(w, err)
			return
		}

		if event == nil {
			render.JSON(w, render.H{"refreshed": false})
			return
		}

		render.JSON(w, views.EventView(event))
	}
}

func setCollateralHandler(vaults *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body core.Collateral
		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		p, err := collateral.ParamsFromConfig(body)
		if err != nil {
			render.Error(w, err)
			return
		}

		cfg, err := vaults.SetCollateral(r.Context(), caller(r), collateralType(r), p)
		if err != nil {
			render.Error(w, err)
			return
		}

		view, err := views.CollateralView(cfg)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, view)
	}
}

func collectHandler(vaults *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collected, err := vaults.CollectIncome(r.Context(), caller(r), collateralType(r))
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{"collected": ray.ToDecimal(collected, ray.WadDecimals)})
	}
}

func pauseHandler(fn func(ctx context.Context, caller string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(r.Context(), caller(r)); err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{"ok": true})
	}
}
