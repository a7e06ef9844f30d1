package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RealIP rewrites RemoteAddr from X-Forwarded-For or X-Real-IP when
// trustProxy is set. Otherwise those headers are client-controlled, so the
// socket address is kept and per-client limits cannot be dodged by
// forging them.
func RealIP(trustProxy bool) func(http.Handler) http.Handler {
	if trustProxy {
		return chimw.RealIP
	}
	return func(next http.Handler) http.Handler { return next }
}
