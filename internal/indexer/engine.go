package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/tokenizer"
)

// Stats summarises what an Engine was built from.
type Stats struct {
	Documents         int           `json:"documents"`
	Sections          int           `json:"sections"`
	Terms             int           `json:"terms"`
	Postings          int           `json:"postings"`
	SizeBytes         int64         `json:"size_bytes"`
	OrphanedSections  int           `json:"orphaned_sections"`
	DuplicateSections int           `json:"duplicate_sections"`
	DuplicateDocs     int           `json:"duplicate_documents"`
	BuildDuration     time.Duration `json:"build_duration_ns"`

	// Fingerprint identifies the snapshot content and tokenizer settings.
	// Engines built from equal inputs in different processes agree on it.
	Fingerprint string `json:"fingerprint"`
}

// Engine is a corpus snapshot joined with its inverted index. It is
// immutable once NewEngine returns; rebuild rather than mutate.
type Engine struct {
	index     *index.Index
	tokenizer tokenizer.Tokenizer
	sections  map[string]*corpus.Section
	documents map[string]*corpus.Document
	stats     Stats
	logger    *slog.Logger
}

// NewEngine indexes the snapshot. Sections referencing a document that is
// not in the snapshot are skipped and counted, as are repeated section or
// document IDs after their first occurrence.
func NewEngine(snapshot corpus.Snapshot, tok tokenizer.Tokenizer) *Engine {
	start := time.Now()
	e := &Engine{
		tokenizer: tok,
		sections:  make(map[string]*corpus.Section, len(snapshot.Sections)),
		documents: make(map[string]*corpus.Document, len(snapshot.Documents)),
		logger:    slog.Default().With("component", "indexer"),
	}

	for i := range snapshot.Documents {
		doc := snapshot.Documents[i]
		if _, exists := e.documents[doc.ID]; exists {
			e.stats.DuplicateDocs++
			e.logger.Warn("duplicate document id, keeping first", "doc_id", doc.ID)
			continue
		}
		e.documents[doc.ID] = &doc
	}

	texts := make([]index.SectionText, 0, len(snapshot.Sections))
	for i := range snapshot.Sections {
		sec := snapshot.Sections[i]
		if _, ok := e.documents[sec.DocumentID]; !ok {
			e.stats.OrphanedSections++
			e.logger.Warn("section references unknown document, skipping",
				"section_id", sec.ID,
				"doc_id", sec.DocumentID,
			)
			continue
		}
		if _, exists := e.sections[sec.ID]; exists {
			e.stats.DuplicateSections++
			e.logger.Warn("duplicate section id, keeping first", "section_id", sec.ID)
			continue
		}
		e.sections[sec.ID] = &sec
		texts = append(texts, index.SectionText{ID: sec.ID, Title: sec.Title, Body: sec.Text})
	}

	e.index = index.Build(texts, tok)
	e.stats.Documents = len(e.documents)
	e.stats.Sections = e.index.SectionCount()
	e.stats.Terms = e.index.Terms()
	e.stats.Postings = e.index.Postings()
	e.stats.SizeBytes = e.index.Size()
	e.stats.Fingerprint = fingerprint(snapshot, tok)
	e.stats.BuildDuration = time.Since(start)

	e.logger.Info("index built",
		"documents", e.stats.Documents,
		"sections", e.stats.Sections,
		"terms", e.stats.Terms,
		"postings", e.stats.Postings,
		"orphaned_sections", e.stats.OrphanedSections,
		"fingerprint", e.stats.Fingerprint,
		"duration_ms", e.stats.BuildDuration.Milliseconds(),
	)
	return e
}

// Search returns the postings for a normalised term.
func (e *Engine) Search(term string) index.PostingList {
	return e.index.Lookup(term)
}

// Tokenizer returns the tokenizer the index was built with. Queries must
// be normalised with it.
func (e *Engine) Tokenizer() tokenizer.Tokenizer {
	return e.tokenizer
}

// Section returns the indexed section with the given ID.
func (e *Engine) Section(id string) (*corpus.Section, bool) {
	sec, ok := e.sections[id]
	return sec, ok
}

// SectionDocument joins a section to its parent document. Every indexed
// section has one.
func (e *Engine) SectionDocument(sectionID string) (*corpus.Section, *corpus.Document, bool) {
	sec, ok := e.sections[sectionID]
	if !ok {
		return nil, nil, false
	}
	doc, ok := e.documents[sec.DocumentID]
	return sec, doc, ok
}

// Stats returns build statistics.
func (e *Engine) Stats() Stats {
	return e.stats
}

// TopTerms returns up to n terms held by the most sections, most common
// first and alphabetical among equals.
func (e *Engine) TopTerms(n int) []TermCount {
	entries := e.index.Snapshot()
	counts := make([]TermCount, 0, len(entries))
	for _, entry := range entries {
		counts = append(counts, TermCount{Term: entry.Term, Sections: len(entry.Postings)})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Sections > counts[j].Sections
	})
	if n >= 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// TermCount is a term and the number of sections containing it.
type TermCount struct {
	Term     string `json:"term"`
	Sections int    `json:"sections"`
}

func fingerprint(snapshot corpus.Snapshot, tok tokenizer.Tokenizer) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|min=%d", snapshot.Fingerprint(), tok.MinLength))
	return hex.EncodeToString(sum[:16])
}
