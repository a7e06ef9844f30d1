package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/corpus"
)

func TestPasses(t *testing.T) {
	federalConst := &corpus.Document{ID: "us", AuthorityLevel: corpus.AuthorityFederal, Type: corpus.TypeConstitution}
	localOrd := &corpus.Document{ID: "sf", AuthorityLevel: corpus.AuthorityLocal, Type: corpus.TypeOrdinance}

	tests := []struct {
		name    string
		doc     *corpus.Document
		filters Filters
		want    bool
	}{
		{"no filters", federalConst, Filters{}, true},
		{"empty slices are unrestricted", federalConst, Filters{AuthorityLevels: []corpus.AuthorityLevel{}, DocumentTypes: []corpus.DocumentType{}}, true},
		{"authority match", federalConst, Filters{AuthorityLevels: []corpus.AuthorityLevel{corpus.AuthorityState, corpus.AuthorityFederal}}, true},
		{"authority miss", federalConst, Filters{AuthorityLevels: []corpus.AuthorityLevel{corpus.AuthorityState}}, false},
		{"type match", localOrd, Filters{DocumentTypes: []corpus.DocumentType{corpus.TypeOrdinance}}, true},
		{"type miss", localOrd, Filters{DocumentTypes: []corpus.DocumentType{corpus.TypeTreaty}}, false},
		{"both must hold", localOrd, Filters{
			AuthorityLevels: []corpus.AuthorityLevel{corpus.AuthorityLocal},
			DocumentTypes:   []corpus.DocumentType{corpus.TypeStatute},
		}, false},
		{"nil document", nil, Filters{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Passes(tt.doc, tt.filters))
		})
	}
}

func TestFilters_Key(t *testing.T) {
	a := Filters{
		AuthorityLevels: []corpus.AuthorityLevel{corpus.AuthorityState, corpus.AuthorityFederal, corpus.AuthorityState},
		DocumentTypes:   []corpus.DocumentType{corpus.TypeTreaty},
	}
	b := Filters{
		AuthorityLevels: []corpus.AuthorityLevel{corpus.AuthorityFederal, corpus.AuthorityState},
		DocumentTypes:   []corpus.DocumentType{corpus.TypeTreaty},
	}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "auth=federal,state|type=treaty", a.Key())
	assert.NotEqual(t, a.Key(), Filters{}.Key())
	assert.True(t, Filters{}.Unrestricted())
	assert.False(t, a.Unrestricted())
	// Key must not reorder the caller's slice.
	assert.Equal(t, corpus.AuthorityState, a.AuthorityLevels[0])
}
