package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/tokenizer"
)

// QueryPlan is a normalised query: its distinct terms in first-seen order.
// Words such as AND, OR and NOT are ordinary terms; there is no operator
// syntax.
type QueryPlan struct {
	Terms    []string
	RawQuery string
}

// Empty reports whether the plan has nothing to search for.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}

// Parse normalises query with tok, which must be the tokenizer the index was
// built with, and removes duplicate terms.
func Parse(query string, tok tokenizer.Tokenizer) *QueryPlan {
	plan := &QueryPlan{
		Terms:    make([]string, 0),
		RawQuery: query,
	}
	if strings.TrimSpace(query) == "" {
		return plan
	}
	seen := make(map[string]struct{})
	for _, term := range tok.Normalize(query) {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		plan.Terms = append(plan.Terms, term)
	}
	return plan
}
