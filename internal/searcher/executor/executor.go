package executor

import (
	"log/slog"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/snippet"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
)

// Result is one ranked section joined with its document.
type Result struct {
	Section     corpus.Section  `json:"section"`
	Document    corpus.Document `json:"document"`
	Score       float64         `json:"score"`
	MatchedText string          `json:"matched_text"`
}

type SearchResult struct {
	Query     string         `json:"query"`
	TotalHits int            `json:"total_hits"`
	Results   []Result       `json:"results"`
	TermStats map[string]int `json:"term_stats"`
}

type Executor struct {
	engine  *indexer.Engine
	weights ranker.Weights
	cfg     config.SearchConfig
	logger  *slog.Logger
}

// New builds an executor. Unset ranking weights fall back to the 5:1:5
// defaults.
func New(engine *indexer.Engine, cfg config.SearchConfig) *Executor {
	weights := ranker.FromConfig(cfg.Ranking)
	if weights == (ranker.Weights{}) {
		weights = ranker.DefaultWeights()
	}
	return &Executor{
		engine:  engine,
		weights: weights,
		cfg:     cfg,
		logger:  slog.Default().With("component", "query-executor"),
	}
}

// Engine returns the engine this executor queries.
func (e *Executor) Engine() *indexer.Engine {
	return e.engine
}

type candidate struct {
	section  *corpus.Section
	document *corpus.Document
	matched  int
}

// Execute runs plan against the engine. A section is a candidate when it
// holds at least one plan term. Candidates whose document fails filters
// are dropped before scoring, so the limit counts only passing results.
// limit <= 0 selects the configured default. An empty result is returned
// for an empty plan, unmatched terms or filters nothing satisfies.
func (e *Executor) Execute(plan *parser.QueryPlan, filters filter.Filters, limit int) *SearchResult {
	limit = e.clampLimit(limit)
	result := &SearchResult{
		Results:   []Result{},
		TermStats: map[string]int{},
	}
	if plan == nil || plan.Empty() {
		if plan != nil {
			result.Query = plan.RawQuery
		}
		return result
	}
	result.Query = plan.RawQuery

	matched := make(map[string]int)
	for _, term := range plan.Terms {
		postings := e.engine.Search(term)
		if len(postings) == 0 {
			continue
		}
		result.TermStats[term] = len(postings)
		for _, p := range postings {
			matched[p.SectionID]++
		}
	}

	unrestricted := filters.Unrestricted()
	candidates := make([]candidate, 0, len(matched))
	for id, n := range matched {
		sec, doc, ok := e.engine.SectionDocument(id)
		if !ok || (!unrestricted && !filter.Passes(doc, filters)) {
			continue
		}
		candidates = append(candidates, candidate{section: sec, document: doc, matched: n})
	}
	result.TotalHits = len(candidates)

	if maxCandidates := e.candidateCap(limit); len(candidates) > maxCandidates {
		sort.Slice(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			if a.matched != b.matched {
				return a.matched > b.matched
			}
			if a.section.Order != b.section.Order {
				return a.section.Order < b.section.Order
			}
			return a.section.ID < b.section.ID
		})
		e.logger.Debug("candidate cap reached",
			"query", plan.RawQuery,
			"candidates", len(candidates),
			"cap", maxCandidates,
		)
		candidates = candidates[:maxCandidates]
	}

	scored := make([]merger.Candidate, 0, len(candidates))
	bySection := make(map[string]candidate, len(candidates))
	for _, c := range candidates {
		scored = append(scored, merger.Candidate{
			SectionID:     c.section.ID,
			Score:         ranker.ScoreSection(c.section.ID, plan.Terms, e.engine.Search, e.weights),
			AuthorityRank: c.document.AuthorityLevel.Rank(),
			Order:         c.section.Order,
		})
		bySection[c.section.ID] = c
	}

	for _, top := range merger.TopK(scored, limit) {
		c := bySection[top.SectionID]
		text := snippet.Extract(c.section.Text, plan.Terms, e.cfg.SnippetWindow)
		if text == "" {
			text = c.section.Title
		}
		result.Results = append(result.Results, Result{
			Section:     *c.section,
			Document:    *c.document,
			Score:       top.Score,
			MatchedText: text,
		})
	}

	e.logger.Debug("query executed",
		"query", plan.RawQuery,
		"terms", plan.Terms,
		"candidates", result.TotalHits,
		"results", len(result.Results),
	)
	return result
}

func (e *Executor) clampLimit(limit int) int {
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if limit <= 0 {
		limit = config.DefaultSearchConfig().DefaultLimit
	}
	if e.cfg.MaxResults > 0 && limit > e.cfg.MaxResults {
		limit = e.cfg.MaxResults
	}
	return limit
}

func (e *Executor) candidateCap(limit int) int {
	return max(limit*e.cfg.CandidateMultiplier, e.cfg.MinCandidates, limit)
}
