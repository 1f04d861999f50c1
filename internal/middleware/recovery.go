// Package middleware provides HTTP middleware shared by the dispatcher.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/federationserver/federationserver/internal/apierr"
	"github.com/federationserver/federationserver/internal/response"
)

// Recoverer returns middleware that recovers from panics in a handler,
// logs the stack, and writes a generic 500 rather than crashing the
// worker.
func Recoverer(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error().
						Interface("panic", rec).
						Bytes("stack", debug.Stack()).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Msg("panic recovered")

					response.WriteError(w, apierr.New(apierr.Unexpected, "an internal error occurred"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
