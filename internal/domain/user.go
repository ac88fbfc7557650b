package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the canonical account row. Username and email are immutable after
// creation; changing either would require rewriting the lookup tables.
type User struct {
	UserID         uuid.UUID  `json:"user_id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"`
	FirstName      *string    `json:"first_name,omitempty"`
	LastName       *string    `json:"last_name,omitempty"`
	IsActive       bool       `json:"is_active"`
	EmailVerified  bool       `json:"email_verified"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// AuthDetails is the reduced projection handed to authenticating callers.
// The store never inspects the password; verification happens caller-side so
// the hashing scheme stays pluggable.
type AuthDetails struct {
	UserID         uuid.UUID `json:"user_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	EmailVerified  bool      `json:"email_verified"`
}

// NewAccount carries the caller-supplied fields for account creation.
// HashedPassword must already be hashed; the store treats it as opaque text.
type NewAccount struct {
	Username       string
	Email          string
	HashedPassword string
	FirstName      *string
	LastName       *string
	IsActive       bool
	EmailVerified  bool
}

// UpdateProfileRequest is a patch: nil fields are left unchanged.
// Username and email are deliberately absent.
type UpdateProfileRequest struct {
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	IsActive      *bool   `json:"is_active"`
	EmailVerified *bool   `json:"email_verified"`
}

// AuthPolicy selects which account flags ForAuthentication enforces.
// The zero value enforces nothing: the caller receives AuthDetails and
// applies its own policy.
type AuthPolicy struct {
	RequireActive        bool
	RequireVerifiedEmail bool
}

// RegisterRequest is the transport-level registration payload.
type RegisterRequest struct {
	Username  string  `json:"username" validate:"required,min=3,max=64"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// LoginRequest is the transport-level login payload. Identifier is a
// username or an email address.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}
