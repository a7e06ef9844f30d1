package index

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/tokenizer"
)

// Index is an immutable in-memory inverted index from term to postings.
// It is built once and safe for concurrent readers; there is no update
// path, a changed corpus gets a new Index.
type Index struct {
	postings   map[string]PostingList
	sections   int
	postingCnt int
	size       int64
}

// Build indexes every section's title and body independently. Postings for
// a term appear in the order sections were supplied. Sections whose title
// and body yield no tokens contribute nothing.
func Build(sections []SectionText, tok tokenizer.Tokenizer) *Index {
	idx := &Index{
		postings: make(map[string]PostingList),
	}
	for _, sec := range sections {
		idx.add(sec, tok)
	}
	return idx
}

func (m *Index) add(sec SectionText, tok tokenizer.Tokenizer) {
	m.sections++
	titleTF := tok.Frequencies(sec.Title)
	bodyTF := tok.Frequencies(sec.Body)
	if len(titleTF) == 0 && len(bodyTF) == 0 {
		return
	}

	termData := make(map[string]*Posting, len(titleTF)+len(bodyTF))
	for term, n := range titleTF {
		termData[term] = &Posting{SectionID: sec.ID, TitleTF: n}
	}
	for term, n := range bodyTF {
		p, exists := termData[term]
		if !exists {
			p = &Posting{SectionID: sec.ID}
			termData[term] = p
		}
		p.BodyTF = n
	}

	for term, posting := range termData {
		m.postings[term] = append(m.postings[term], *posting)
		m.postingCnt++
		m.size += int64(len(term) + len(sec.ID) + 16)
	}
}

// Lookup returns the postings for an already-normalised term, or nil. The
// returned slice is shared and must not be modified.
func (m *Index) Lookup(term string) PostingList {
	return m.postings[term]
}

// Snapshot returns every term with its postings, sorted by term.
func (m *Index) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(m.postings))
	for term, postings := range m.postings {
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: postings,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

// Terms returns the number of distinct terms.
func (m *Index) Terms() int {
	return len(m.postings)
}

// Postings returns the total number of postings across all terms.
func (m *Index) Postings() int {
	return m.postingCnt
}

// SectionCount returns how many sections were fed to Build, including
// those that produced no postings.
func (m *Index) SectionCount() int {
	return m.sections
}

// Size is a rough estimate of the index footprint in bytes.
func (m *Index) Size() int64 {
	return m.size
}
