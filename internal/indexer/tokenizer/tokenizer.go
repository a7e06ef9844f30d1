// Package tokenizer normalises legal text into index and query terms. It
// lower-cases input, strips every rune that is not a letter, digit or
// whitespace, splits on whitespace and drops tokens below a minimum length.
//
// Stop-words are kept on purpose: short words such as "due" or "writ" carry
// meaning in legal text. There is no stemming.
package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMinLength is the shortest token kept when no minimum is configured.
const DefaultMinLength = 2

// Tokenizer normalises text. The same Tokenizer must be used for indexing
// and for queries so that query terms line up with index terms.
type Tokenizer struct {
	MinLength int
}

// New returns a Tokenizer keeping tokens of at least minLength runes. Values
// below 1 fall back to DefaultMinLength.
func New(minLength int) Tokenizer {
	if minLength < 1 {
		minLength = DefaultMinLength
	}
	return Tokenizer{MinLength: minLength}
}

// Normalize breaks text into lower-cased alphanumeric tokens. It is total:
// empty or punctuation-only input yields an empty slice.
func (t Tokenizer) Normalize(text string) []string {
	minLen := t.MinLength
	if minLen < 1 {
		minLen = DefaultMinLength
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	words := strings.Fields(b.String())
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if utf8.RuneCountInString(word) < minLen {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Frequencies counts each token of text.
func (t Tokenizer) Frequencies(text string) map[string]int {
	tokens := t.Normalize(text)
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}
	return counts
}
