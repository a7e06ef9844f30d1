package analytics

import "time"

// SearchEvent describes one answered search request.
type SearchEvent struct {
	Query           string    `json:"query"`
	Terms           []string  `json:"terms"`
	AuthorityLevels []string  `json:"authority_levels,omitempty"`
	DocumentTypes   []string  `json:"document_types,omitempty"`
	Limit           int       `json:"limit"`
	TotalHits       int       `json:"total_hits"`
	Returned        int       `json:"returned"`
	LatencyMicros   int64     `json:"latency_us"`
	CacheHit        bool      `json:"cache_hit"`
	ZeroResult      bool      `json:"zero_result"`
	CorpusVersion   uint64    `json:"corpus_version"`
	Timestamp       time.Time `json:"timestamp"`
	RequestID       string    `json:"request_id,omitempty"`
}

// Tracker accepts search events without blocking the request path.
type Tracker interface {
	Track(event SearchEvent)
}

// Trackers fans one event out to several trackers.
type Trackers []Tracker

func (ts Trackers) Track(event SearchEvent) {
	for _, t := range ts {
		t.Track(event)
	}
}
