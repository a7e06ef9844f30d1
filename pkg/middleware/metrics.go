// Package middleware holds the HTTP middleware of the search service:
// request IDs, access logging, Prometheus metrics, rate limiting and
// request timeouts.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/metrics"
)

// Metrics records request count, latency and in-flight requests, labelled
// by chi route pattern.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			path := routePattern(r)
			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status(ww))).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// AccessLog writes one structured line per request through the
// request-scoped logger, so it carries the request ID.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		code := status(ww)
		log := logger.FromContext(r.Context())
		attrs := []any{
			"method", r.Method,
			"route", routePattern(r),
			"status", code,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", r.RemoteAddr,
		}
		if code >= http.StatusInternalServerError {
			log.Error("request failed", attrs...)
			return
		}
		log.Info("request served", attrs...)
	})
}

// status treats a handler that never called WriteHeader as 200.
func status(ww chimw.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

// routePattern labels requests by their chi route ("/api/v1/sections/{id}")
// so per-section lookups do not explode label cardinality. Unrouted
// requests share one label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
