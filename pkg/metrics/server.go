package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const indexPage = `<html><head><title>lexsearch metrics</title></head><body>
<h1>lexsearch metrics</h1>
<ul>
<li><a href="/metrics">/metrics</a> Prometheus scrape endpoint</li>
<li>search_* query volume, latency and result counts</li>
<li>search_cache_* result cache hits and misses per tier</li>
<li>corpus_* and index_* reloads, serving version and index size</li>
</ul></body></html>`

// NewRouter mounts scrape on /metrics next to a small index page.
func NewRouter(scrape http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", scrape)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, indexPage)
	})
	return r
}

// StartServer serves the default registry on its own port so scrapes
// never queue behind search traffic. The returned function stops it.
func StartServer(port int) (shutdown func(context.Context) error) {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewRouter(Handler()),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
