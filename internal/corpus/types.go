// Package corpus defines the legal documents and sections the search engine
// indexes, plus loaders that produce immutable corpus snapshots from files
// or PostgreSQL.
package corpus

import "strings"

// AuthorityLevel is the legal hierarchy tier a document belongs to.
type AuthorityLevel string

const (
	AuthorityFederal   AuthorityLevel = "federal"
	AuthorityState     AuthorityLevel = "state"
	AuthorityTerritory AuthorityLevel = "territory"
	AuthorityLocal     AuthorityLevel = "local"
)

// AuthorityLevels lists the recognised levels from highest to lowest.
var AuthorityLevels = []AuthorityLevel{
	AuthorityFederal,
	AuthorityState,
	AuthorityTerritory,
	AuthorityLocal,
}

// Rank orders authority levels for tie-breaking: lower is higher authority.
// Unrecognised levels sort after local.
func (a AuthorityLevel) Rank() int {
	switch a {
	case AuthorityFederal:
		return 0
	case AuthorityState:
		return 1
	case AuthorityTerritory:
		return 2
	case AuthorityLocal:
		return 3
	default:
		return 4
	}
}

// Valid reports whether a is one of the recognised levels.
func (a AuthorityLevel) Valid() bool {
	return a.Rank() < 4
}

// ParseAuthorityLevel normalises s and reports whether it names a known level.
func ParseAuthorityLevel(s string) (AuthorityLevel, bool) {
	level := AuthorityLevel(strings.ToLower(strings.TrimSpace(s)))
	return level, level.Valid()
}

// DocumentType classifies a document. The set is open: seed data may carry
// types beyond the constants below.
type DocumentType string

const (
	TypeConstitution DocumentType = "constitution"
	TypeStatute      DocumentType = "statute"
	TypeTreaty       DocumentType = "treaty"
	TypeRegulation   DocumentType = "regulation"
	TypeOrdinance    DocumentType = "ordinance"
)

// ParseDocumentType lower-cases and trims s.
func ParseDocumentType(s string) DocumentType {
	return DocumentType(strings.ToLower(strings.TrimSpace(s)))
}

// Document is a constitution, statute, treaty or other legal instrument.
type Document struct {
	ID             string         `json:"id" yaml:"id"`
	Title          string         `json:"title" yaml:"title"`
	AuthorityLevel AuthorityLevel `json:"authority_level" yaml:"authorityLevel"`
	Type           DocumentType   `json:"type" yaml:"type"`
	JurisdictionID string         `json:"jurisdiction_id" yaml:"jurisdictionId"`
}

// Section is one addressable unit of a document's text.
type Section struct {
	ID         string `json:"id" yaml:"id"`
	DocumentID string `json:"document_id" yaml:"documentId"`
	Title      string `json:"title" yaml:"title"`
	Number     string `json:"number" yaml:"number"`
	Text       string `json:"text" yaml:"text"`
	Citation   string `json:"citation" yaml:"citation"`
	Order      int    `json:"order" yaml:"order"`
}

// Snapshot is the read-only corpus an engine is built from. Callers must
// not mutate a snapshot after handing it to an engine; build a new one
// instead.
type Snapshot struct {
	Documents []Document `json:"documents" yaml:"documents"`
	Sections  []Section  `json:"sections" yaml:"sections"`
}
