package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/tokenizer"
)

func TestParse(t *testing.T) {
	tok := tokenizer.New(2)
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"two terms", "due process", []string{"due", "process"}},
		{"dedupes keeping first order", "Process due PROCESS due", []string{"process", "due"}},
		{"punctuation stripped", "\"search & seizure\"", []string{"search", "seizure"}},
		{"operators are plain words", "liberty AND property NOT", []string{"liberty", "and", "property", "not"}},
		{"short tokens dropped", "a b c", []string{}},
		{"whitespace only", "   \t", []string{}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Parse(tt.query, tok)
			assert.Equal(t, tt.want, plan.Terms)
			assert.Equal(t, tt.query, plan.RawQuery)
			assert.Equal(t, len(tt.want) == 0, plan.Empty())
		})
	}
}

func TestParse_MatchesIndexTokenizer(t *testing.T) {
	tok := tokenizer.New(3)
	plan := Parse("due process of law", tok)
	assert.Equal(t, []string{"due", "process", "law"}, plan.Terms)
}

func BenchmarkParse(b *testing.B) {
	tok := tokenizer.New(2)
	queries := []string{
		"due process",
		"unreasonable searches and seizures",
		"freedom of speech press assembly petition redress grievances",
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Parse(queries[i%len(queries)], tok)
	}
}
