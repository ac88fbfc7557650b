package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kcexn/collaborate-core/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps login/register responses.
type AuthEnvelope struct {
	Bearer string      `json:"Bearer,omitempty"`
	User   interface{} `json:"user,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// writeStoreError maps the account-store error taxonomy onto HTTP statuses.
// Datastore details never reach the client.
func writeStoreError(w http.ResponseWriter, err error) {
	var (
		usernameTaken *domain.UsernameTakenError
		emailTaken    *domain.EmailTakenError
		inconsistent  *domain.InconsistentDataError
	)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.As(err, &usernameTaken), errors.As(err, &emailTaken),
		errors.Is(err, domain.ErrUsernameOrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &inconsistent):
		writeError(w, http.StatusInternalServerError, "account state is ambiguous")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
