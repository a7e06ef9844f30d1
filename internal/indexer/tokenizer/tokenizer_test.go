package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases and splits", "Due Process Clause", []string{"due", "process", "clause"}},
		{"strips punctuation", "life, liberty, or property.", []string{"life", "liberty", "or", "property"}},
		{"keeps function words", "No person shall be deprived", []string{"no", "person", "shall", "be", "deprived"}},
		{"drops single runes", "a writ of habeas corpus", []string{"writ", "of", "habeas", "corpus"}},
		{"joins across stripped punctuation", "State's 14th-Amendment", []string{"states", "14thamendment"}},
		{"digits survive", "Art. IV § 2", []string{"art", "iv"}},
		{"tabs and newlines split", "search\tand\nseizure", []string{"search", "and", "seizure"}},
		{"unicode letters", "Décret Général", []string{"décret", "général"}},
		{"empty", "", []string{}},
		{"punctuation only", "§ — ... !!", []string{}},
	}
	tok := New(DefaultMinLength)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Normalize(tt.in))
		})
	}
}

func TestTokenizer_MinLength(t *testing.T) {
	one := New(1)
	assert.Equal(t, []string{"a", "writ"}, one.Normalize("A writ"))

	four := New(4)
	assert.Equal(t, []string{"writ", "habeas", "corpus"}, four.Normalize("a writ of habeas corpus"))

	// Zero value falls back to the default.
	var zero Tokenizer
	assert.Equal(t, []string{"writ"}, zero.Normalize("a writ"))
}

func TestNormalize_Deterministic(t *testing.T) {
	text := strings.Repeat("The right of the people to be secure in their persons. ", 20)
	tok := New(DefaultMinLength)
	first := tok.Normalize(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, tok.Normalize(text))
	}
}

func TestFrequencies(t *testing.T) {
	counts := New(2).Frequencies("Search and seizure; searches and SEIZURE.")
	assert.Equal(t, map[string]int{"search": 1, "and": 2, "seizure": 2, "searches": 1}, counts)
}

func BenchmarkNormalize(b *testing.B) {
	text := strings.Repeat(`The right of the people to be secure in their persons, houses,
        papers, and effects, against unreasonable searches and seizures, shall not be
        violated, and no Warrants shall issue, but upon probable cause. `, 20)
	tok := New(DefaultMinLength)
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = tok.Normalize(text)
	}
}
