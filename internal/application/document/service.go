// Package document stores opaque CRDT payloads with their metadata. It is a
// blob store: merge, ordering, and conflict resolution happen client-side.
package document

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kcexn/collaborate-core/internal/domain"
	"github.com/kcexn/collaborate-core/internal/pkg/clock"
)

type Service interface {
	Create(ctx context.Context, name string) (*domain.DocumentMetadata, error)
	Metadata(ctx context.Context, docID uuid.UUID) (*domain.DocumentMetadata, error)
	Content(ctx context.Context, docID uuid.UUID) (*domain.DocumentContent, error)
	Get(ctx context.Context, docID uuid.UUID) (*domain.Document, error)
	UpdateContent(ctx context.Context, docID uuid.UUID, data []byte) error
}

type documentStore interface {
	InsertMetadata(ctx context.Context, m *domain.DocumentMetadata) error
	GetMetadata(ctx context.Context, docID uuid.UUID) (*domain.DocumentMetadata, error)
	UpsertContent(ctx context.Context, docID uuid.UUID, data []byte, updatedAt time.Time) error
	TouchMetadata(ctx context.Context, docID uuid.UUID, updatedAt time.Time) error
	GetContent(ctx context.Context, docID uuid.UUID) (*domain.DocumentContent, error)
}

type service struct {
	store documentStore
	clock clock.Clock
}

func NewService(store documentStore, clk clock.Clock) Service {
	if clk == nil {
		clk = clock.System{}
	}
	return &service{store: store, clock: clk}
}

func (s *service) Create(ctx context.Context, name string) (*domain.DocumentMetadata, error) {
	now := s.clock.Now()
	m := &domain.DocumentMetadata{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertMetadata(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Metadata returns (nil, nil) when the document does not exist.
func (s *service) Metadata(ctx context.Context, docID uuid.UUID) (*domain.DocumentMetadata, error) {
	return s.store.GetMetadata(ctx, docID)
}

// Content returns (nil, nil) when no payload has been written yet.
func (s *service) Content(ctx context.Context, docID uuid.UUID) (*domain.DocumentContent, error) {
	return s.store.GetContent(ctx, docID)
}

func (s *service) Get(ctx context.Context, docID uuid.UUID) (*domain.Document, error) {
	m, err := s.store.GetMetadata(ctx, docID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	c, err := s.store.GetContent(ctx, docID)
	if err != nil {
		return nil, err
	}
	return &domain.Document{Metadata: *m, Content: c}, nil
}

// UpdateContent upserts the payload and advances the metadata timestamp with
// the same instant, so both tables agree on the last write.
func (s *service) UpdateContent(ctx context.Context, docID uuid.UUID, data []byte) error {
	m, err := s.store.GetMetadata(ctx, docID)
	if err != nil {
		return err
	}
	if m == nil {
		return domain.ErrDocumentNotFound
	}
	now := s.clock.Now()
	if err := s.store.UpsertContent(ctx, docID, data, now); err != nil {
		return err
	}
	return s.store.TouchMetadata(ctx, docID, now)
}
