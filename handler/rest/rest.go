package rest

import (
	"context"
	"errors"
	"net/http"

	"cdp/core"
	"cdp/handler/auth"
	"cdp/handler/render"
	"cdp/handler/request"
	"cdp/service/vault"

	"github.com/go-chi/chi"
)

// Delegations grants other users withdraw and borrow rights
type Delegations interface {
	Delegate(ctx context.Context, owner, delegate string) error
	Revoke(ctx context.Context, owner, delegate string) error
	Delegates(ctx context.Context, owner string) ([]*core.Delegation, error)
}

// Handle handle rest api request
func Handle(vaults *vault.Service, delegations Delegations, system core.SystemStore) http.Handler {
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	router.Get("/collaterals", collateralsHandler(vaults))
	router.Get("/collaterals/{type}", collateralHandler(vaults))
	router.Post("/collaterals/{type}/refresh", refreshHandler(vaults))
	router.Get("/vaults/{id}", vaultHandler(vaults))
	router.Get("/stats", statsHandler(vaults, system))
	router.Get("/events", eventsHandler(vaults))

	router.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)

		r.Post("/vaults", openHandler(vaults))
		r.Post("/vaults/{id}/deposit", amountHandler(vaults.Deposit))
		r.Post("/vaults/{id}/withdraw", amountHandler(vaults.Withdraw))
		r.Post("/vaults/{id}/borrow", amountHandler(vaults.Borrow))
		r.Post("/vaults/{id}/repay", amountHandler(vaults.Repay))
		r.Post("/vaults/{id}/repay-all", repayAllHandler(vaults))
		r.Post("/vaults/{id}/liquidate", liquidateHandler(vaults))

		r.Get("/delegates", delegatesHandler(delegations))
		r.Post("/delegates/{delegate}", delegateHandler(delegations.Delegate))
		r.Delete("/delegates/{delegate}", delegateHandler(delegations.Revoke))

		r.Put("/collaterals/{type}", setCollateralHandler(vaults))
		r.Post("/collaterals/{type}/collect", collectHandler(vaults))
		r.Post("/pause", pauseHandler(vaults.Pause))
		r.Post("/unpause", pauseHandler(vaults.Unpause))
	})

	return router
}

func caller(r *http.Request) string {
	userID, _ := request.NewContext(r.Context()).GetUser()
	return userID
}
