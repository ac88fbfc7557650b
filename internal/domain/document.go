package domain

import (
	"time"

	"github.com/google/uuid"
)

// DocumentMetadata is the descriptive half of a document.
type DocumentMetadata struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentContent holds the opaque CRDT payload. The store performs no
// merge, ordering, or conflict resolution on it.
type DocumentContent struct {
	DocumentID uuid.UUID `json:"document_id"`
	CRDTData   []byte    `json:"crdt_data"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Document pairs metadata with its content, when any exists.
type Document struct {
	Metadata DocumentMetadata `json:"metadata"`
	Content  *DocumentContent `json:"content,omitempty"`
}

// CreateDocumentRequest is the transport-level document creation payload.
type CreateDocumentRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}
