package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kcexn/collaborate-core/internal/application/document"
	"github.com/kcexn/collaborate-core/internal/domain"
	"github.com/kcexn/collaborate-core/internal/pkg/validate"
)

// 4 MiB cap on a single CRDT payload.
const maxContentSize = 4 << 20

// DocumentHandler handles document CRUD. Content bodies are raw bytes; the
// payload is opaque to the server.
type DocumentHandler struct {
	docs document.Service
}

func NewDocumentHandler(docs document.Service) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.docs.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	docID, ok := docIDParam(w, r)
	if !ok {
		return
	}
	doc, err := h.docs.Get(r.Context(), docID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	docID, ok := docIDParam(w, r)
	if !ok {
		return
	}
	c, err := h.docs.Content(r.Context(), docID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "document content not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(c.CRDTData)
}

func (h *DocumentHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	docID, ok := docIDParam(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxContentSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to read body")
		return
	}
	if len(data) > maxContentSize {
		writeError(w, http.StatusRequestEntityTooLarge, "content too large")
		return
	}
	err = h.docs.UpdateContent(r.Context(), docID, data)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "content updated"})
}

func docIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	docID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return uuid.Nil, false
	}
	return docID, true
}
