package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/postgres"
)

// Loader fetches a complete corpus snapshot.
type Loader interface {
	Load(ctx context.Context) (Snapshot, error)
}

// FileLoader reads a snapshot from a YAML or JSON file. JSON is selected
// by a .json extension and uses the API field names (snake_case); anything
// else is parsed as YAML with camelCase keys.
type FileLoader struct {
	Path string
}

func (l FileLoader) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading corpus file %s: %w: %w", l.Path, apperrors.ErrCorpusUnavailable, err)
	}
	snap, err := Decode(data, filepath.Ext(l.Path))
	if err != nil {
		return Snapshot{}, fmt.Errorf("parsing corpus file %s: %w", l.Path, err)
	}
	return snap, nil
}

// Decode parses a snapshot; ext picks the format (".json" or YAML).
func Decode(data []byte, ext string) (Snapshot, error) {
	var snap Snapshot
	if strings.EqualFold(ext, ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&snap); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
		}
		return snap, nil
	}
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}
	return snap, nil
}

// Encode renders a snapshot in the format Decode reads for ext.
func Encode(snap Snapshot, ext string) ([]byte, error) {
	if strings.EqualFold(ext, ".json") {
		return json.MarshalIndent(snap, "", "  ")
	}
	return yaml.Marshal(snap)
}

// StaticLoader returns a fixed snapshot. Useful for tests and for callers
// that already hold the corpus in memory.
type StaticLoader Snapshot

func (l StaticLoader) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot(l), nil
}

// NewLoader builds the loader selected by cfg.Source. db is only needed
// for the postgres source.
func NewLoader(cfg config.CorpusConfig, db *postgres.Client) (Loader, error) {
	switch cfg.Source {
	case config.CorpusSourceFile:
		if cfg.Path == "" {
			return nil, apperrors.Invalidf("corpus path is empty")
		}
		return FileLoader{Path: cfg.Path}, nil
	case config.CorpusSourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres corpus source without a database client: %w", apperrors.ErrCorpusUnavailable)
		}
		return NewPostgresStore(db), nil
	default:
		return nil, apperrors.Invalidf("unknown corpus source %q", cfg.Source)
	}
}
