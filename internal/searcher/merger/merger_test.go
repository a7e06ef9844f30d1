package merger

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.SectionID
	}
	return out
}

func TestTopK_Ordering(t *testing.T) {
	cands := []Candidate{
		{SectionID: "local-1", Score: 6, AuthorityRank: 3, Order: 1},
		{SectionID: "fed-2", Score: 6, AuthorityRank: 0, Order: 2},
		{SectionID: "fed-1", Score: 6, AuthorityRank: 0, Order: 1},
		{SectionID: "best", Score: 9.5, AuthorityRank: 2, Order: 7},
		{SectionID: "state-1", Score: 6, AuthorityRank: 1, Order: 1},
		{SectionID: "b-same", Score: 6, AuthorityRank: 0, Order: 1},
	}
	got := TopK(cands, 10)
	assert.Equal(t, []string{"best", "b-same", "fed-1", "fed-2", "state-1", "local-1"}, ids(got))
}

func TestTopK_Truncates(t *testing.T) {
	cands := []Candidate{
		{SectionID: "a", Score: 1},
		{SectionID: "b", Score: 3},
		{SectionID: "c", Score: 2},
		{SectionID: "d", Score: 5},
	}
	assert.Equal(t, []string{"d", "b"}, ids(TopK(cands, 2)))
	assert.Empty(t, TopK(cands, 0))
	assert.Empty(t, TopK(nil, 5))
}

func TestTopK_MatchesFullSort(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cands := make([]Candidate, 500)
	for i := range cands {
		cands[i] = Candidate{
			SectionID:     fmt.Sprintf("s%03d", i),
			Score:         float64(rng.Intn(20)),
			AuthorityRank: rng.Intn(5),
			Order:         rng.Intn(10),
		}
	}
	sorted := append([]Candidate(nil), cands...)
	sort.Slice(sorted, func(i, j int) bool { return Before(sorted[i], sorted[j]) })

	got := TopK(cands, 25)
	require.Len(t, got, 25)
	assert.Equal(t, sorted[:25], got)
}

func BenchmarkTopK(b *testing.B) {
	cands := make([]Candidate, 5000)
	for i := range cands {
		cands[i] = Candidate{SectionID: fmt.Sprintf("s%d", i), Score: float64(i % 97), Order: i}
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = TopK(cands, 100)
	}
}
