package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
)

func sample() Snapshot {
	return Snapshot{
		Documents: []Document{
			{ID: "us-const", Title: "United States Constitution", AuthorityLevel: AuthorityFederal, Type: TypeConstitution, JurisdictionID: "us"},
		},
		Sections: []Section{
			{ID: "us-5", DocumentID: "us-const", Title: "Due Process Clause", Number: "Amend. V", Text: "No person shall be deprived of life, liberty, or property without due process of law.", Citation: "U.S. Const. amend. V", Order: 5},
		},
	}
}

func TestAuthorityLevel(t *testing.T) {
	assert.Less(t, AuthorityFederal.Rank(), AuthorityState.Rank())
	assert.Less(t, AuthorityState.Rank(), AuthorityTerritory.Rank())
	assert.Less(t, AuthorityTerritory.Rank(), AuthorityLocal.Rank())
	assert.Less(t, AuthorityLocal.Rank(), AuthorityLevel("tribal").Rank())

	level, ok := ParseAuthorityLevel("  State ")
	assert.True(t, ok)
	assert.Equal(t, AuthorityState, level)
	_, ok = ParseAuthorityLevel("county")
	assert.False(t, ok)

	assert.Equal(t, TypeTreaty, ParseDocumentType(" TREATY"))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(sample()))

	bad := sample()
	bad.Documents = append(bad.Documents,
		Document{ID: "us-const", Title: "dup", AuthorityLevel: AuthorityFederal, Type: TypeStatute},
		Document{ID: "x", Title: " ", AuthorityLevel: "county", Type: ""},
	)
	bad.Sections = append(bad.Sections,
		Section{ID: "us-5", DocumentID: "us-const"},
		Section{ID: "orphan", DocumentID: "missing"},
	)

	err := Validate(bad)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "documents[1].id")
	assert.Contains(t, verr.Fields, "documents[2].title")
	assert.Contains(t, verr.Fields, "documents[2].authorityLevel")
	assert.Contains(t, verr.Fields, "documents[2].type")
	assert.Contains(t, verr.Fields, "sections[1].id")
	assert.Contains(t, verr.Fields, "sections[2].documentId")
	assert.Contains(t, err.Error(), "documents[1].id: duplicate document id")
}

func TestFileLoader_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	content := `
documents:
  - id: ca-const
    title: California Constitution
    authorityLevel: state
    type: constitution
    jurisdictionId: us-ca
sections:
  - id: ca-1-13
    documentId: ca-const
    title: Search and Seizure
    number: "Art. I, sec. 13"
    text: The right of the people to be secure against unreasonable seizures and searches may not be violated.
    order: 13
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	snap, err := FileLoader{Path: path}.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Documents, 1)
	require.Len(t, snap.Sections, 1)
	assert.Equal(t, AuthorityState, snap.Documents[0].AuthorityLevel)
	assert.Equal(t, "us-ca", snap.Documents[0].JurisdictionID)
	assert.Equal(t, "ca-const", snap.Sections[0].DocumentID)
	assert.Equal(t, 13, snap.Sections[0].Order)
}

func TestFileLoader_JSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	data, err := Encode(sample(), ".json")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	snap, err := FileLoader{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample(), snap)
}

func TestFileLoader_Errors(t *testing.T) {
	_, err := FileLoader{Path: filepath.Join(t.TempDir(), "nope.yaml")}.Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrCorpusUnavailable)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"documents": [{"id": 3}]}`), 0o644))
	_, err = FileLoader{Path: path}.Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FileLoader{Path: path}.Load(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStaticLoader(t *testing.T) {
	snap, err := StaticLoader(sample()).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample(), snap)
}

func TestNewLoader(t *testing.T) {
	l, err := NewLoader(config.CorpusConfig{Source: config.CorpusSourceFile, Path: "corpus.yaml"}, nil)
	require.NoError(t, err)
	assert.Equal(t, FileLoader{Path: "corpus.yaml"}, l)

	_, err = NewLoader(config.CorpusConfig{Source: config.CorpusSourceFile}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = NewLoader(config.CorpusConfig{Source: config.CorpusSourcePostgres}, nil)
	assert.ErrorIs(t, err, apperrors.ErrCorpusUnavailable)

	_, err = NewLoader(config.CorpusConfig{Source: "s3"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
