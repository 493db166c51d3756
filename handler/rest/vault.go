package rest

import (
	"context"
	"net/http"
	"strings"

	"cdp/core"
	"cdp/handler/param"
	"cdp/handler/render"
	"cdp/handler/views"
	"cdp/pkg/id"
	"cdp/service/vault"

	"github.com/go-chi/chi"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// pathVaultID path id of the vault; malformed ids cannot name a vault
func pathVaultID(r *http.Request) (string, error) {
	s := chi.URLParam(r, "id")
	if !id.IsUUID(s) {
		return "", core.ErrVaultNotFound
	}

	return s, nil
}

type vaultAction func(ctx context.Context, caller, vaultID string, amount *uint256.Int) (*core.Event, error)

func vaultHandler(vaults *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vaultID, err := pathVaultID(r)
		if err != nil {
			render.Error(w, err)
			return
		}

		v, err := vaults.Vault(r.Context(), vaultID)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.VaultView(v))
	}
}

func openHandler(vaults *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			CollateralType string `json:"collateral_type" valid:"alphanum,required"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		ctx := r.Context()
		created, err := vaults.Open(ctx, caller(r), strings.ToUpper(body.CollateralType))
		if err != nil {
			render.Error(w, err)
			return
		}

		v, err := vaults.Vault(ctx, created.ID)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.VaultView(v))
	}
}

func amountHandler(action vaultAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vaultID, err := pathVaultID(r)
		if err != nil {
			render.Error(w, err)
			return
		}

		var body struct {
			Amount decimal.Decimal `json:"amount"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		amount, err := param.Amount(body.Amount)
		if err != nil {
			render.Error(w, err)
			return
		}

		event, err := action(r.Context(), caller(r), vaultID, amount)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.EventView(event))
	}
}

func repayAllHandler(vaults *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vaultID, err := pathVaultID(r)
		if err != nil {
			render.Error(w, err)
			return
		}

		event, err := vaults.RepayAll(r.Context(), caller(r), vaultID)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.EventView(event))
	}
}

// liquidateHandler repays the whole debt when the body has no amount
func liquidateHandler(vaults *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vaultID, err := pathVaultID(r)
		if err != nil {
			render.Error(w, err)
			return
		}

		var body struct {
			Amount *decimal.Decimal `json:"amount"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		var amount *uint256.Int
		if body.Amount != nil {
			var err error
			if amount, err = param.Amount(*body.Amount); err != nil {
				render.Error(w, err)
				return
			}
		}

		event, err := vaults.Liquidate(r.Context(), caller(r), vaultID, amount)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.EventView(event))
	}
}

func delegateHandler(fn func(ctx context.Context, owner, delegate string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(r.Context(), caller(r), chi.URLParam(r, "delegate")); err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{"ok": true})
	}
}

func delegatesHandler(delegations Delegations) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grants, err := delegations.Delegates(r.Context(), caller(r))
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, grants)
	}
}
