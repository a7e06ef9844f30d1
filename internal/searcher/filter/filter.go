// Package filter restricts search results by document facets.
package filter

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/corpus"
)

// Filters lists the allowed values per facet. A nil or empty facet places
// no restriction on that facet.
type Filters struct {
	AuthorityLevels []corpus.AuthorityLevel `json:"authority_levels,omitempty"`
	DocumentTypes   []corpus.DocumentType   `json:"document_types,omitempty"`
}

// Passes reports whether doc satisfies every restricted facet.
func Passes(doc *corpus.Document, f Filters) bool {
	if doc == nil {
		return false
	}
	if len(f.AuthorityLevels) > 0 && !contains(f.AuthorityLevels, doc.AuthorityLevel) {
		return false
	}
	if len(f.DocumentTypes) > 0 && !contains(f.DocumentTypes, doc.Type) {
		return false
	}
	return true
}

// Unrestricted reports whether f lets every document through.
func (f Filters) Unrestricted() bool {
	return len(f.AuthorityLevels) == 0 && len(f.DocumentTypes) == 0
}

// Key is a canonical string for f, independent of value order and
// duplicates. Used in cache keys.
func (f Filters) Key() string {
	levels := make([]string, 0, len(f.AuthorityLevels))
	for _, l := range f.AuthorityLevels {
		levels = append(levels, string(l))
	}
	types := make([]string, 0, len(f.DocumentTypes))
	for _, t := range f.DocumentTypes {
		types = append(types, string(t))
	}
	return "auth=" + canonical(levels) + "|type=" + canonical(types)
}

func canonical(values []string) string {
	sort.Strings(values)
	out := values[:0]
	for i, v := range values {
		if i > 0 && v == values[i-1] {
			continue
		}
		out = append(out, v)
	}
	return strings.Join(out, ",")
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
