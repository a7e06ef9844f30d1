package ranker

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
)

// Weights scales the three relevance signals. Title must outweigh Body.
type Weights struct {
	Title    float64
	Body     float64
	Coverage float64
}

func DefaultWeights() Weights {
	return FromConfig(config.DefaultSearchConfig().Ranking)
}

func FromConfig(cfg config.RankingConfig) Weights {
	return Weights{
		Title:    cfg.TitleWeight,
		Body:     cfg.BodyWeight,
		Coverage: cfg.CoverageWeight,
	}
}

// Score rates one section. matches holds the section's posting for each
// distinct query term it contains; totalTerms is the number of distinct
// query terms. Each match adds Title*titleTf + Body*ln(1+bodyTf), and the
// fraction of query terms matched adds Coverage times that fraction.
func Score(matches []index.Posting, totalTerms int, w Weights) float64 {
	if totalTerms <= 0 || len(matches) == 0 {
		return 0
	}
	var score float64
	for _, p := range matches {
		score += w.Title*float64(p.TitleTF) + w.Body*math.Log1p(float64(p.BodyTF))
	}
	coverage := float64(len(matches)) / float64(totalTerms)
	if coverage > 1 {
		coverage = 1
	}
	score += w.Coverage * coverage
	return math.Round(score*10000) / 10000
}

// ScoreSection scores sectionID against terms by looking each term up. A
// term missing from the index contributes nothing.
func ScoreSection(sectionID string, terms []string, lookup func(term string) index.PostingList, w Weights) float64 {
	matches := make([]index.Posting, 0, len(terms))
	for _, term := range terms {
		for _, p := range lookup(term) {
			if p.SectionID == sectionID {
				matches = append(matches, p)
				break
			}
		}
	}
	return Score(matches, len(terms), w)
}
