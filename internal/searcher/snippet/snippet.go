// Package snippet cuts a short, readable excerpt out of section text around
// the places a query matched.
package snippet

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultWindow is the target snippet length in characters.
const DefaultWindow = 200

// Ellipsis marks a side of the snippet where section text was cut.
const Ellipsis = "..."

type hit struct {
	start, end int
}

// Extract returns roughly window characters of text around the densest
// cluster of query-term occurrences. Terms are matched case-insensitively as
// substrings, so "search" also hits "searches". When no term occurs the
// leading window of text is returned. Runs of whitespace are collapsed.
// Only blank text yields an empty snippet.
func Extract(text string, terms []string, window int) string {
	if window <= 0 {
		window = DefaultWindow
	}
	runes := []rune(text)
	hits := findHits(runes, terms)
	if len(hits) == 0 {
		return leading(runes, window)
	}

	bestStart, bestEnd, bestCount := 0, 0, -1
	for i := range hits {
		count, end := 0, hits[i].end
		for j := i; j < len(hits); j++ {
			if hits[j].start-hits[i].start >= window {
				break
			}
			if hits[j].end-hits[i].start <= window {
				count++
				end = max(end, hits[j].end)
			}
		}
		if count > bestCount {
			bestStart, bestEnd, bestCount = hits[i].start, end, count
		}
	}

	start, end := centre(bestStart, bestEnd, len(runes), window)
	for start > 0 && start < bestStart && !unicode.IsSpace(runes[start-1]) {
		start++
	}
	for end < len(runes) && end > bestEnd && !unicode.IsSpace(runes[end]) {
		end--
	}
	return decorate(runes, start, end)
}

// centre places a window-sized span around [s, e) and clamps it to the text.
func centre(s, e, n, window int) (int, int) {
	if e-s >= window {
		return s, e
	}
	start := s - (window-(e-s))/2
	end := start + window
	if start < 0 {
		start, end = 0, min(window, n)
	}
	if end > n {
		end, start = n, max(0, n-window)
	}
	return start, end
}

func leading(runes []rune, window int) string {
	if len(runes) <= window {
		return decorate(runes, 0, len(runes))
	}
	end := window
	for end > 0 && !unicode.IsSpace(runes[end]) {
		end--
	}
	if end == 0 {
		end = window
	}
	return decorate(runes, 0, end)
}

func decorate(runes []rune, start, end int) string {
	body := collapse(string(runes[start:end]))
	if body == "" {
		return ""
	}
	if start > 0 && strings.TrimSpace(string(runes[:start])) != "" {
		body = Ellipsis + body
	}
	if end < len(runes) && strings.TrimSpace(string(runes[end:])) != "" {
		body += Ellipsis
	}
	return body
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// findHits returns every non-overlapping occurrence of each term in text,
// ordered by position. Offsets are rune indexes.
func findHits(text []rune, terms []string) []hit {
	lower := make([]rune, len(text))
	for i, r := range text {
		lower[i] = unicode.ToLower(r)
	}
	var hits []hit
	for _, term := range terms {
		needle := []rune(strings.ToLower(term))
		if len(needle) == 0 {
			continue
		}
		for i := 0; i+len(needle) <= len(lower); i++ {
			if runesEqual(lower[i:i+len(needle)], needle) {
				hits = append(hits, hit{start: i, end: i + len(needle)})
				i += len(needle) - 1
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].start != hits[j].start {
			return hits[i].start < hits[j].start
		}
		return hits[i].end < hits[j].end
	})
	return hits
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
