package recovery

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/tamshai/hr-gateway/internal/envelope"
)

// Middleware intercepts panics from downstream handlers, logs details, and
// answers with the INTERNAL_ERROR envelope so even a transport-level panic
// honors the three-shape response contract.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Str("remote", r.RemoteAddr).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				resp := envelope.Err(envelope.CodeInternalError,
					"An unexpected error occurred while handling the request.",
					"Retry once; escalate if the error persists.")
				_ = json.NewEncoder(w).Encode(resp)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
