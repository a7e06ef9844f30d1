package merger

import (
	"container/heap"
)

// Candidate is a scored section waiting for final ordering.
type Candidate struct {
	SectionID     string
	Score         float64
	AuthorityRank int
	Order         int
}

// Before reports whether a ranks ahead of b: higher score first, then
// higher authority (lower rank), then section order, then section ID.
func Before(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.AuthorityRank != b.AuthorityRank {
		return a.AuthorityRank < b.AuthorityRank
	}
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	return a.SectionID < b.SectionID
}

// TopK returns the best limit candidates in rank order. It keeps a bounded
// min-heap so only limit items are held at once.
func TopK(candidates []Candidate, limit int) []Candidate {
	if limit <= 0 {
		return []Candidate{}
	}
	h := &candidateHeap{}
	heap.Init(h)
	for _, c := range candidates {
		if h.Len() < limit {
			heap.Push(h, c)
			continue
		}
		if Before(c, (*h)[0]) {
			(*h)[0] = c
			heap.Fix(h, 0)
		}
	}
	result := make([]Candidate, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(Candidate)
	}
	return result
}

// candidateHeap keeps the worst-ranked candidate at the root.
type candidateHeap []Candidate

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool { return Before(h[j], h[i]) }

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x interface{}) {
	*h = append(*h, x.(Candidate))
}

func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
