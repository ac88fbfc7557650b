package ws

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/kcexn/collaborate-core/internal/application/document"
	jwtinfra "github.com/kcexn/collaborate-core/internal/infrastructure/jwt"
)

// Handler upgrades HTTP requests to WebSocket connections. Browsers cannot
// set headers on upgrade requests, so the bearer token arrives as a query
// parameter.
type Handler struct {
	hub      *Hub
	docs     document.Service
	provider *jwtinfra.Provider
	origins  []string
	log      *zap.Logger
}

func NewHandler(hub *Hub, docs document.Service, provider *jwtinfra.Provider, origins []string, log *zap.Logger) *Handler {
	return &Handler{hub: hub, docs: docs, provider: provider, origins: origins, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, `{"error":"missing token"}`, http.StatusUnauthorized)
		return
	}
	claims, err := h.provider.Verify(tokenStr)
	if err != nil {
		http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		http.Error(w, `{"error":"invalid token subject"}`, http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.log.Warn("ws accept failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, h.docs, userID, h.log)
	h.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}
