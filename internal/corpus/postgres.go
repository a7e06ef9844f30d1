package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/postgres"
)

// Schema creates the tables PostgresStore reads. Safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS legal_documents (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	authority_level TEXT NOT NULL,
	doc_type        TEXT NOT NULL,
	jurisdiction_id TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS legal_sections (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	title       TEXT NOT NULL,
	number      TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	citation    TEXT NOT NULL DEFAULT '',
	sort_order  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_legal_sections_document ON legal_sections (document_id, sort_order);
`

// PostgresStore loads and replaces the corpus held in legal_documents and
// legal_sections.
type PostgresStore struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewPostgresStore(db *postgres.Client) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: slog.Default().With("component", "corpus-store"),
	}
}

// EnsureSchema creates the corpus tables when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating corpus schema: %w", err)
	}
	return nil
}

// Load reads documents and sections concurrently. Sections come back in
// document, then section order.
func (s *PostgresStore) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := s.loadDocuments(gctx)
		snap.Documents = docs
		return err
	})
	g.Go(func() error {
		secs, err := s.loadSections(gctx)
		snap.Sections = secs
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", apperrors.ErrCorpusUnavailable, err)
	}
	s.logger.Info("corpus loaded from postgres",
		"documents", len(snap.Documents),
		"sections", len(snap.Sections),
	)
	return snap, nil
}

func (s *PostgresStore) loadDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, title, authority_level, doc_type, jurisdiction_id
		 FROM legal_documents ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Title, &d.AuthorityLevel, &d.Type, &d.JurisdictionID); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) loadSections(ctx context.Context) ([]Section, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, document_id, title, number, body, citation, sort_order
		 FROM legal_sections ORDER BY document_id, sort_order, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sections: %w", err)
	}
	defer rows.Close()

	var secs []Section
	for rows.Next() {
		var sec Section
		if err := rows.Scan(&sec.ID, &sec.DocumentID, &sec.Title, &sec.Number, &sec.Text, &sec.Citation, &sec.Order); err != nil {
			return nil, fmt.Errorf("scanning section row: %w", err)
		}
		secs = append(secs, sec)
	}
	return secs, rows.Err()
}

// Replace swaps the stored corpus for snap in one transaction.
func (s *PostgresStore) Replace(ctx context.Context, snap Snapshot) error {
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM legal_sections`); err != nil {
			return fmt.Errorf("clearing sections: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM legal_documents`); err != nil {
			return fmt.Errorf("clearing documents: %w", err)
		}
		docStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO legal_documents (id, title, authority_level, doc_type, jurisdiction_id)
			 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("preparing document insert: %w", err)
		}
		defer docStmt.Close()
		for _, d := range snap.Documents {
			if _, err := docStmt.ExecContext(ctx, d.ID, d.Title, string(d.AuthorityLevel), string(d.Type), d.JurisdictionID); err != nil {
				return fmt.Errorf("inserting document %s: %w", d.ID, err)
			}
		}
		secStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO legal_sections (id, document_id, title, number, body, citation, sort_order)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("preparing section insert: %w", err)
		}
		defer secStmt.Close()
		for _, sec := range snap.Sections {
			if _, err := secStmt.ExecContext(ctx, sec.ID, sec.DocumentID, sec.Title, sec.Number, sec.Text, sec.Citation, sec.Order); err != nil {
				return fmt.Errorf("inserting section %s: %w", sec.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("corpus replaced in postgres",
		"documents", len(snap.Documents),
		"sections", len(snap.Sections),
	)
	return nil
}
