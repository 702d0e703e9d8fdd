package middleware

import (
	"net/http"

	"github.com/kindredhq/kindred/internal/config"
	"github.com/kindredhq/kindred/internal/ctxkeys"
)

// Config puts the sanitized app configuration on the request context.
// Secrets are stripped before the config reaches handlers.
func Config(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ctxkeys.WithConfig(r.Context(), cfg.Sanitized())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
