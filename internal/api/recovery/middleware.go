// Package recovery turns handler panics into a JSON 500.
package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/parksyoung/It-Da-sub000/internal/api/respond"
	"github.com/parksyoung/It-Da-sub000/internal/metrics"
)

// Middleware recovers panics, logs them with the stack and counts them.
func Middleware(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				metrics.PanicsTotal.Inc()
				log.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("path", r.URL.EscapedPath()).
					Str("owner", r.Header.Get("X-Owner-ID")).
					Bytes("stack", debug.Stack()).
					Msg("handler panic")
				respond.WriteError(w, http.StatusInternalServerError, "internal", http.StatusText(http.StatusInternalServerError))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
