package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kcexn/collaborate-core/internal/domain"
)

// DocumentRepo provides typed access to the two document tables.
type DocumentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

// EnsureSchema creates the document tables if they don't already exist.
// Fatal to startup on failure.
func (r *DocumentRepo) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS documents_metadata (
			id UUID PRIMARY KEY,
			name TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents_content (
			document_id UUID PRIMARY KEY,
			crdt_data BYTEA,
			updated_at TIMESTAMPTZ NOT NULL,
			FOREIGN KEY (document_id) REFERENCES documents_metadata(id) ON DELETE CASCADE
		)`,
	}
	for _, stmt := range ddl {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure document schema: %w", err)
		}
	}
	return nil
}

func (r *DocumentRepo) InsertMetadata(ctx context.Context, m *domain.DocumentMetadata) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO documents_metadata (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		m.ID, m.Name, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

// GetMetadata returns (nil, nil) when the document does not exist.
func (r *DocumentRepo) GetMetadata(ctx context.Context, docID uuid.UUID) (*domain.DocumentMetadata, error) {
	var m domain.DocumentMetadata
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM documents_metadata WHERE id = $1`,
		docID,
	).Scan(&m.ID, &m.Name, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}

// UpsertContent replaces the opaque payload for a document.
func (r *DocumentRepo) UpsertContent(ctx context.Context, docID uuid.UUID, data []byte, updatedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO documents_content (document_id, crdt_data, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (document_id) DO UPDATE
		 SET crdt_data = EXCLUDED.crdt_data,
		     updated_at = EXCLUDED.updated_at`,
		docID, data, updatedAt,
	)
	return err
}

// TouchMetadata advances the metadata timestamp after a content write.
func (r *DocumentRepo) TouchMetadata(ctx context.Context, docID uuid.UUID, updatedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE documents_metadata SET updated_at = $1 WHERE id = $2`,
		updatedAt, docID,
	)
	return err
}

// GetContent returns (nil, nil) when no content row exists.
func (r *DocumentRepo) GetContent(ctx context.Context, docID uuid.UUID) (*domain.DocumentContent, error) {
	var c domain.DocumentContent
	err := r.pool.QueryRow(ctx,
		`SELECT document_id, crdt_data, updated_at FROM documents_content WHERE document_id = $1`,
		docID,
	).Scan(&c.DocumentID, &c.CRDTData, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}
