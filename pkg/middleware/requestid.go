package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID attaches a request ID to the context and response. An
// incoming X-Request-ID header wins, then one set by chi's RequestID
// middleware, then a fresh random ID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = chimw.GetReqID(r.Context())
		}
		if id == "" {
			id = newID()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// GetRequestID returns the ID RequestID stored in ctx.
func GetRequestID(ctx context.Context) string {
	return logger.RequestID(ctx)
}

func newID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b[:])
}
