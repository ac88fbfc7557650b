package ws

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Wire event types. doc.update carries an opaque payload from one client;
// doc.updated is the fan-out to every other subscriber of the document.
const (
	EventTypeDocSubscribe   = "doc.subscribe"
	EventTypeDocUnsubscribe = "doc.unsubscribe"
	EventTypeDocUpdate      = "doc.update"
	EventTypeDocUpdated     = "doc.updated"
	EventTypePresence       = "presence"
	EventTypePing           = "ping"
	EventTypePong           = "pong"
	EventTypeError          = "error"
)

// Event is the wire envelope for every WebSocket message.
type Event struct {
	Type       string          `json:"type"`
	DocumentID *uuid.UUID      `json:"document_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// NewEvent marshals payload into a wire envelope.
func NewEvent(eventType string, documentID *uuid.UUID, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{Type: eventType, DocumentID: documentID, Payload: data}, nil
}

// DocPayload identifies a document for subscribe/unsubscribe.
type DocPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
}

// UpdatePayload carries an opaque CRDT delta; Data is base64 on the wire.
type UpdatePayload struct {
	DocumentID uuid.UUID `json:"document_id"`
	Data       []byte    `json:"data"`
}

// UpdatedPayload is the broadcast form of an applied update.
type UpdatedPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
	UserID     uuid.UUID `json:"user_id"`
	Data       []byte    `json:"data"`
}

// PresencePayload announces a user coming online or going offline.
type PresencePayload struct {
	UserID uuid.UUID `json:"user_id"`
	Status string    `json:"status"`
}

// ErrorPayload reports a client-protocol error.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
