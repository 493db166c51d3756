package hc

import (
	"net/http"
	"time"

	"cdp/core"
	"cdp/handler/render"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// Handle handle hc request
func Handle(ver string, system core.SystemStore) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NoCache)
	r.Handle("/", handle(ver, system))
	return r
}

func handle(version string, system core.SystemStore) http.HandlerFunc {
	b := time.Now()
	return func(w http.ResponseWriter, r *http.Request) {
		paused, err := system.Paused(r.Context())
		if err != nil {
			render.Error(w, err)
			return
		}

		uptime := time.Since(b).Truncate(time.Millisecond)
		render.JSON(w, render.H{
			"uptime":  uptime.String(),
			"version": version,
			"paused":  paused,
		})
	}
}
