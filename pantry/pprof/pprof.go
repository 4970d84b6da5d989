// pprof/pprof.go
package pprof

import (
	"net/http"
	stdpprof "net/http/pprof"

	"github.com/go-chi/chi/v5"
)

// Prefix is where the profiling handlers are mounted.
const Prefix = "/debug/pprof"

// Mount attaches the Go profiling handlers under Prefix, wrapped in guard
// (typically apikey.Require). The endpoints expose process internals and
// must not be mounted without one.
//
//	pprof.Mount(r, apikey.Require(adminKey, logger))
func Mount(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Route(Prefix, func(r chi.Router) {
		r.Use(guard)

		r.Get("/", stdpprof.Index)
		r.Get("/cmdline", stdpprof.Cmdline)
		r.Get("/profile", stdpprof.Profile)
		r.Get("/symbol", stdpprof.Symbol)
		r.Post("/symbol", stdpprof.Symbol)
		r.Get("/trace", stdpprof.Trace)
		// heap, goroutine, allocs, block, mutex, threadcreate
		r.Get("/{name}", stdpprof.Index)
	})
}
