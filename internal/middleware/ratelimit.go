package middleware

import (
	"net"
	"net/http"

	"dog-registry/internal/platform/logger"
	"dog-registry/internal/ports/ratelimit"
)

// RateLimit aplica el limiter inyectado con key por IP del cliente.
// Si el limiter falla (p.ej. redis caído) el request pasa: preferimos
// degradar el limiting antes que tirar tráfico legítimo.
func RateLimit(limiter ratelimit.Limiter, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := limiter.Allow(r.Context(), clientKey(r))
			if err != nil {
				if log != nil {
					log.Warn("rate limiter unavailable, allowing request", map[string]any{
						"error": err.Error(),
					})
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	// chi RealIP ya corrió: RemoteAddr trae la IP real.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
