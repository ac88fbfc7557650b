package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/kcexn/collaborate-core/internal/application/document"
	"github.com/kcexn/collaborate-core/internal/domain"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256

	updateTimeout = 15 * time.Second
)

// Client represents a single WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	docs   document.Service
	userID uuid.UUID
	log    *zap.Logger

	// subscribed tracks which documents this client listens to.
	subscribed map[uuid.UUID]struct{}
	mu         sync.RWMutex

	send chan []byte
	done chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, docs document.Service, userID uuid.UUID, log *zap.Logger) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		docs:       docs,
		userID:     userID,
		log:        log,
		subscribed: make(map[uuid.UUID]struct{}),
		send:       make(chan []byte, sendBufSize),
		done:       make(chan struct{}),
	}
}

// IsSubscribed checks if this client is subscribed to a document.
func (c *Client) IsSubscribed(documentID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscribed[documentID]
	return ok
}

// Subscribe adds a document subscription.
func (c *Client) Subscribe(documentID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribed[documentID] = struct{}{}
}

// Unsubscribe removes a document subscription.
func (c *Client) Unsubscribe(documentID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribed, documentID)
}

// ReadPump reads messages from the WebSocket and routes them.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(context.Background(), c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) == -1 {
				c.log.Warn("ws read failed", zap.Error(err))
			}
			return
		}
		c.handleEvent(&event)
	}
}

// WritePump writes messages from the send channel to the WebSocket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// handleEvent routes an incoming client event.
func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypeDocSubscribe:
		var p DocPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid doc.subscribe payload")
			return
		}
		c.Subscribe(p.DocumentID)

	case EventTypeDocUnsubscribe:
		var p DocPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid doc.unsubscribe payload")
			return
		}
		c.Unsubscribe(p.DocumentID)

	case EventTypeDocUpdate:
		var p UpdatePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid doc.update payload")
			return
		}
		c.handleUpdate(p)

	case EventTypePing:
		c.sendPong()

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

// handleUpdate persists the opaque payload, then fans it out to every other
// subscriber. The server never interprets the bytes.
func (c *Client) handleUpdate(p UpdatePayload) {
	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	err := c.docs.UpdateContent(ctx, p.DocumentID, p.Data)
	cancel()
	if errors.Is(err, domain.ErrDocumentNotFound) {
		c.sendError("DOC_NOT_FOUND", "document not found")
		return
	}
	if err != nil {
		c.log.Error("ws update persist failed", zap.Error(err))
		c.sendError("UPDATE_FAILED", "unable to persist update")
		return
	}

	evt, err := NewEvent(EventTypeDocUpdated, &p.DocumentID, UpdatedPayload{
		DocumentID: p.DocumentID,
		UserID:     c.userID,
		Data:       p.Data,
	})
	if err != nil {
		return
	}
	c.hub.BroadcastToDocument(p.DocumentID, evt, &c.userID)
}

func (c *Client) sendPong() {
	data, _ := json.Marshal(Event{Type: EventTypePong})
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(code, message string) {
	evt, err := NewEvent(EventTypeError, nil, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
