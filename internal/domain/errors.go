package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for domain-level error discrimination. Services wrap these
// so handlers can map them to HTTP status codes without leaking
// infrastructure details.
var (
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameOrEmailTaken is the generic create outcome: the LWT batch
	// reported applied=false but neither disambiguation lookup found a prior
	// owner. Happens when a concurrent writer lost its own race and its rows
	// have since been cleaned up.
	ErrUsernameOrEmailTaken = errors.New("username or email already exists")

	ErrAccountNotActive = errors.New("account is not active")
	ErrEmailNotVerified = errors.New("email not verified")

	ErrDocumentNotFound = errors.New("document not found")
)

// UsernameTakenError reports a create that raced against the existing owner
// of the username.
type UsernameTakenError struct {
	Username string
}

func (e *UsernameTakenError) Error() string {
	return fmt.Sprintf("username %q is already taken", e.Username)
}

// EmailTakenError is the email counterpart of UsernameTakenError.
type EmailTakenError struct {
	Email string
}

func (e *EmailTakenError) Error() string {
	return fmt.Sprintf("email %q is already taken", e.Email)
}

// InconsistentDataError reports a lookup-table entry pointing at a missing
// canonical row. The account is ambiguous; healing requires operator action.
type InconsistentDataError struct {
	UserID uuid.UUID
}

func (e *InconsistentDataError) Error() string {
	return fmt.Sprintf("inconsistent data: found in lookup but not main table for id %s", e.UserID)
}

// RowDecodeError reports a stored row that violated its declared schema.
type RowDecodeError struct {
	Err error
}

func (e *RowDecodeError) Error() string {
	return fmt.Sprintf("failed to decode row: %v", e.Err)
}

func (e *RowDecodeError) Unwrap() error { return e.Err }

// DatabaseError wraps any transport or query failure from the datastore.
// Retryability is a property of the wrapped error; the store never retries
// on its own.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error during %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }
