package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/filter"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/middleware"
)

// Options carries the optional collaborators; nil fields are skipped.
type Options struct {
	Cache        *cache.QueryCache
	Tracker      analytics.Tracker
	Metrics      *metrics.Metrics
	DefaultLimit int
	MaxResults   int
}

type Handler struct {
	searcher     *searcher.Searcher
	cache        *cache.QueryCache
	tracker      analytics.Tracker
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

func New(s *searcher.Searcher, opts Options) *Handler {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 100
	}
	if opts.MaxResults < opts.DefaultLimit {
		opts.MaxResults = opts.DefaultLimit
	}
	return &Handler{
		searcher:     s,
		cache:        opts.Cache,
		tracker:      opts.Tracker,
		metrics:      opts.Metrics,
		defaultLimit: opts.DefaultLimit,
		maxResults:   opts.MaxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Routes mounts the search API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/v1/search", h.Search)
	r.Get("/api/v1/sections/{id}", h.Section)
	r.Get("/api/v1/corpus/stats", h.CorpusStats)
	r.Post("/api/v1/corpus/reload", h.Reload)
	r.Get("/api/v1/cache/stats", h.CacheStats)
	r.Post("/api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	params := r.URL.Query()
	query := params.Get("q")

	limit, err := h.parseLimit(params.Get("limit"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	filters, err := parseFilters(params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	view := h.searcher.Current()
	ctx = logger.WithAttrs(ctx, "version", view.Version)
	log := logger.FromContext(ctx)
	plan := view.Plan(query)
	if plan.Empty() {
		h.recordQuery("empty_query", "none", 0, start)
		h.writeJSON(w, http.StatusOK, &executor.SearchResult{
			Query:     query,
			Results:   []executor.Result{},
			TermStats: map[string]int{},
		})
		return
	}

	var result *executor.SearchResult
	cacheHit := false
	if h.cache != nil {
		key := cache.Key(view.Scope, plan.Terms, filters, limit)
		result, cacheHit = h.cache.GetOrCompute(ctx, key, func() *executor.SearchResult {
			return view.Execute(plan, filters, limit)
		})
	} else {
		result = view.Execute(plan, filters, limit)
	}
	// Cached results are shared; only the echoed query differs per request.
	out := *result
	out.Query = query

	latency := time.Since(start)
	resultType := "hit"
	if len(out.Results) == 0 {
		resultType = "zero_result"
	}
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
	}
	h.recordQuery(resultType, cacheStatus, len(out.Results), start)

	log.Info("search completed",
		"query", query,
		"terms", plan.Terms,
		"total_hits", out.TotalHits,
		"returned", len(out.Results),
		"cache_hit", cacheHit,
		"latency_us", latency.Microseconds(),
	)
	if h.tracker != nil {
		h.tracker.Track(analytics.SearchEvent{
			Query:           query,
			Terms:           plan.Terms,
			AuthorityLevels: levelStrings(filters.AuthorityLevels),
			DocumentTypes:   typeStrings(filters.DocumentTypes),
			Limit:           limit,
			TotalHits:       out.TotalHits,
			Returned:        len(out.Results),
			LatencyMicros:   latency.Microseconds(),
			CacheHit:        cacheHit,
			ZeroResult:      len(out.Results) == 0,
			CorpusVersion:   view.Version,
			Timestamp:       time.Now().UTC(),
			RequestID:       middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, &out)
}

type sectionResponse struct {
	Section  *corpus.Section  `json:"section"`
	Document *corpus.Document `json:"document"`
}

func (h *Handler) Section(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sec, doc, ok := h.searcher.Engine().SectionDocument(id)
	if !ok {
		h.writeError(w, apperrors.NotFoundf("section %q not found", id))
		return
	}
	h.writeJSON(w, http.StatusOK, sectionResponse{Section: sec, Document: doc})
}

type corpusStatsResponse struct {
	Version uint64        `json:"version"`
	Stats   indexer.Stats `json:"stats"`
}

func (h *Handler) CorpusStats(w http.ResponseWriter, r *http.Request) {
	view := h.searcher.Current()
	h.writeJSON(w, http.StatusOK, corpusStatsResponse{
		Version: view.Version,
		Stats:   view.Engine().Stats(),
	})
}

func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	version, err := h.searcher.Reload(r.Context())
	if err != nil {
		log.Error("corpus reload failed", "error", err)
		h.writeError(w, err)
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context()); err != nil {
			log.Warn("cache invalidation after reload failed", "error", err)
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "reloaded",
		"version": version,
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	stats := h.cache.Stats()
	hits := stats.LocalHits + stats.RemoteHits
	total := hits + stats.Misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"stats":    stats,
		"total":    total,
		"hit_rate": strconv.FormatFloat(hitRate, 'f', 1, 64) + "%",
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, apperrors.New(apperrors.ErrCacheUnavailable, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, apperrors.New(apperrors.ErrCacheUnavailable, http.StatusServiceUnavailable, "cache invalidation failed"))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) parseLimit(raw string) (int, error) {
	if raw == "" {
		return h.defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, apperrors.Invalidf("limit must be a positive integer")
	}
	return min(limit, h.maxResults), nil
}

// parseFilters reads repeated or comma-separated authority and type
// parameters. Unknown authority levels are rejected; document types are
// an open set.
func parseFilters(params map[string][]string) (filter.Filters, error) {
	var f filter.Filters
	for _, raw := range splitValues(params["authority"]) {
		level, ok := corpus.ParseAuthorityLevel(raw)
		if !ok {
			return filter.Filters{}, apperrors.Invalidf("unknown authority level %q", raw)
		}
		f.AuthorityLevels = append(f.AuthorityLevels, level)
	}
	for _, raw := range splitValues(params["type"]) {
		f.DocumentTypes = append(f.DocumentTypes, corpus.ParseDocumentType(raw))
	}
	return f, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func levelStrings(levels []corpus.AuthorityLevel) []string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = string(l)
	}
	return out
}

func typeStrings(types []corpus.DocumentType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func (h *Handler) recordQuery(resultType, cacheStatus string, returned int, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	h.metrics.SearchResultsCount.Observe(float64(returned))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]string{"error": apperrors.Message(err)})
}
