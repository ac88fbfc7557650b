package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kcexn/collaborate-core/internal/application/auth"
	"github.com/kcexn/collaborate-core/internal/domain"
	"github.com/kcexn/collaborate-core/internal/pkg/validate"
)

// SessionHandler handles login.
type SessionHandler struct {
	auth auth.Service
}

func NewSessionHandler(authSvc auth.Service) *SessionHandler {
	return &SessionHandler{auth: authSvc}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.auth.Login(r.Context(), req)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	case errors.Is(err, domain.ErrAccountNotActive):
		writeError(w, http.StatusForbidden, "account disabled")
		return
	case err != nil:
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: res.Bearer, User: res.User})
}
