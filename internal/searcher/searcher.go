// Package searcher serves queries against the current corpus snapshot.
//
// A Searcher owns one immutable engine at a time. Rebuilding the corpus
// produces a new engine that replaces the old one atomically; queries in
// flight keep using the engine they started with.
package searcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/metrics"
)

// View is the engine serving queries at one corpus version.
//
// Version counts swaps within this process. Scope identifies the results
// the view produces: corpus content plus the tuning that shapes ranking and
// snippets. Replicas sharing a cache must key on Scope, never on Version.
type View struct {
	Version uint64
	Scope   string
	exec    *executor.Executor
}

// Engine returns the view's engine.
func (v *View) Engine() *indexer.Engine {
	return v.exec.Engine()
}

// Plan normalises query with the tokenizer the view's index was built with.
func (v *View) Plan(query string) *parser.QueryPlan {
	return parser.Parse(query, v.exec.Engine().Tokenizer())
}

func (v *View) Execute(plan *parser.QueryPlan, filters filter.Filters, limit int) *executor.SearchResult {
	return v.exec.Execute(plan, filters, limit)
}

func (v *View) Search(query string, filters filter.Filters, limit int) *executor.SearchResult {
	return v.exec.Execute(v.Plan(query), filters, limit)
}

// SwapHook is notified after a new view starts serving.
type SwapHook func(v *View)

type Option func(*Searcher)

// WithLoader sets the source Reload reads from. cfg bounds each attempt
// and the number of retries.
func WithLoader(l corpus.Loader, cfg config.CorpusConfig) Option {
	return func(s *Searcher) {
		s.loader = l
		s.loadCfg = cfg
	}
}

// WithMetrics reports index size and version gauges on every swap.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Searcher) { s.metrics = m }
}

// OnSwap registers a hook run after each swap, e.g. to drop cached results.
func OnSwap(h SwapHook) Option {
	return func(s *Searcher) { s.hooks = append(s.hooks, h) }
}

type Searcher struct {
	cfg     config.SearchConfig
	tok     tokenizer.Tokenizer
	loader  corpus.Loader
	loadCfg config.CorpusConfig
	metrics *metrics.Metrics
	hooks   []SwapHook

	current  atomic.Pointer[View]
	version  atomic.Uint64
	reloadMu sync.Mutex
	logger   *slog.Logger
}

// New indexes snapshot and starts serving it as version 1.
func New(snapshot corpus.Snapshot, cfg config.SearchConfig, opts ...Option) *Searcher {
	s := &Searcher{
		cfg:    cfg,
		tok:    tokenizer.New(cfg.MinTokenLength),
		logger: slog.Default().With("component", "searcher"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Swap(snapshot)
	return s
}

// Current returns the view serving queries right now.
func (s *Searcher) Current() *View {
	return s.current.Load()
}

// Version is the number of engines built so far.
func (s *Searcher) Version() uint64 {
	return s.Current().Version
}

// Engine returns the current engine.
func (s *Searcher) Engine() *indexer.Engine {
	return s.Current().Engine()
}

// Search runs query against the current engine. It never fails: empty or
// unmatched queries and over-restrictive filters yield empty results.
func (s *Searcher) Search(query string, filters filter.Filters, limit int) *executor.SearchResult {
	return s.Current().Search(query, filters, limit)
}

// Swap indexes snapshot and makes it current. The previous engine is left
// untouched for readers still holding it.
func (s *Searcher) Swap(snapshot corpus.Snapshot) uint64 {
	engine := indexer.NewEngine(snapshot, s.tok)
	view := &View{
		Version: s.version.Add(1),
		Scope:   resultScope(engine.Stats().Fingerprint, s.cfg),
		exec:    executor.New(engine, s.cfg),
	}
	s.current.Store(view)

	stats := engine.Stats()
	if s.metrics != nil {
		s.metrics.CorpusVersion.Set(float64(view.Version))
		s.metrics.IndexedSections.Set(float64(stats.Sections))
		s.metrics.IndexedTerms.Set(float64(stats.Terms))
		s.metrics.OrphanedSections.Set(float64(stats.OrphanedSections))
	}
	for _, h := range s.hooks {
		h(view)
	}
	s.logger.Info("engine swapped",
		"version", view.Version,
		"scope", view.Scope,
		"sections", stats.Sections,
		"terms", stats.Terms,
	)
	return view.Version
}

// ErrNoLoader is returned by Reload on a Searcher built without a loader.
var ErrNoLoader = errors.New("searcher has no corpus loader")

// Reload fetches a fresh snapshot from the loader and swaps it in.
// Concurrent reloads are serialised; on failure the current engine keeps
// serving.
func (s *Searcher) Reload(ctx context.Context) (uint64, error) {
	if s.loader == nil {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrCorpusUnavailable, ErrNoLoader)
	}
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	snapshot, err := LoadSnapshot(ctx, s.loader, s.loadCfg)
	if err != nil {
		s.recordReload("error")
		return 0, fmt.Errorf("reloading corpus: %w", err)
	}
	version := s.Swap(snapshot)
	s.recordReload("success")
	return version, nil
}

func (s *Searcher) recordReload(status string) {
	if s.metrics != nil {
		s.metrics.CorpusReloadsTotal.WithLabelValues(status).Inc()
	}
}

func resultScope(fingerprint string, cfg config.SearchConfig) string {
	raw := fmt.Sprintf("%s|rank=%g/%g/%g|snippet=%d|cand=%d/%d|max=%d|def=%d",
		fingerprint,
		cfg.Ranking.TitleWeight, cfg.Ranking.BodyWeight, cfg.Ranking.CoverageWeight,
		cfg.SnippetWindow,
		cfg.CandidateMultiplier, cfg.MinCandidates,
		cfg.MaxResults, cfg.DefaultLimit,
	)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:12])
}
