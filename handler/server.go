package handler

import (
	"errors"
	"net/http"

	"cdp/core"
	"cdp/handler/auth"
	"cdp/handler/render"
	"cdp/handler/request"
	"cdp/handler/rest"
	"cdp/service/vault"

	"github.com/go-chi/chi"
)

// Server server
type Server struct {
	vaults      *vault.Service
	delegations rest.Delegations
	system      core.SystemStore
	resolve     auth.Resolver
}

// New new server function
func New(
	vaults *vault.Service,
	delegations rest.Delegations,
	system core.SystemStore,
	resolve auth.Resolver,
) Server {
	return Server{
		vaults:      vaults,
		delegations: delegations,
		system:      system,
		resolve:     resolve,
	}
}

// HandleRestAPI handle restful apis
func (s Server) HandleRestAPI() http.Handler {
	r := chi.NewRouter()
	r.Use(render.WrapResponse(render.ResponseErrorMessageAsHint))
	r.Use(auth.HandleAuthentication(s.resolve))
	r.Use(request.HandleIdempotencyKey)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	r.Mount("/", rest.Handle(s.vaults, s.delegations, s.system))
	return r
}
