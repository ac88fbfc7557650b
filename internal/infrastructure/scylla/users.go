package scylla

import (
	"context"
	"errors"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/kcexn/collaborate-core/internal/domain"
)

// CQL statements for the three account tables. Built once here and reused
// for the process lifetime; the driver prepares each on first execution and
// caches the prepared form per session.
const (
	stmtInsertUser = `INSERT INTO users (user_id, username, email, hashed_password, first_name, last_name, is_active, email_verified, created_at, updated_at, last_login_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmtInsertByUsername = `INSERT INTO users_by_username (username, user_id) VALUES (?, ?) IF NOT EXISTS`
	stmtInsertByEmail    = `INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS`

	stmtSelectByID = `SELECT user_id, username, email, hashed_password, first_name, last_name, is_active, email_verified, last_login_at, created_at, updated_at FROM users WHERE user_id = ?`

	stmtSelectIDByUsername = `SELECT user_id FROM users_by_username WHERE username = ?`
	stmtSelectIDByEmail    = `SELECT user_id FROM users_by_email WHERE email = ?`
	stmtSelectIdentifiers  = `SELECT username, email FROM users WHERE user_id = ?`

	stmtUpdateProfile   = `UPDATE users SET first_name = ?, last_name = ?, is_active = ?, email_verified = ?, updated_at = ? WHERE user_id = ?`
	stmtUpdatePassword  = `UPDATE users SET hashed_password = ?, updated_at = ? WHERE user_id = ?`
	stmtUpdateLastLogin = `UPDATE users SET last_login_at = ?, updated_at = ? WHERE user_id = ?`

	stmtDeleteByUsername = `DELETE FROM users_by_username WHERE username = ?`
	stmtDeleteByEmail    = `DELETE FROM users_by_email WHERE email = ?`
	stmtDeleteUser       = `DELETE FROM users WHERE user_id = ?`
)

// UserRepo owns the statements for every CQL-level operation against the
// account tables. Write-side operations are exposed as batch contributors:
// the repo binds parameters and appends to a caller-supplied batch, and the
// caller decides batching strategy and consistency.
type UserRepo struct {
	session *Session
}

func NewUserRepo(session *Session) *UserRepo {
	return &UserRepo{session: session}
}

// decodeErr distinguishes schema violations from transport failures so the
// service layer can surface them differently.
func decodeErr(err error) error {
	var ue gocql.UnmarshalError
	if errors.As(err, &ue) {
		return &domain.RowDecodeError{Err: err}
	}
	return err
}

// FindByID reads the canonical row. Returns (nil, nil) when absent.
func (r *UserRepo) FindByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var (
		id                      gocql.UUID
		username, email, hashed string
		firstName, lastName     *string
		isActive, verified      bool
		lastLogin               *time.Time
		createdAt, updatedAt    time.Time
	)
	err := r.session.Query(ctx, stmtSelectByID, gocql.UUID(userID)).Scan(
		&id, &username, &email, &hashed, &firstName, &lastName,
		&isActive, &verified, &lastLogin, &createdAt, &updatedAt,
	)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, decodeErr(err)
	}
	if lastLogin != nil {
		t := lastLogin.UTC()
		lastLogin = &t
	}
	return &domain.User{
		UserID:         uuid.UUID(id),
		Username:       username,
		Email:          email,
		HashedPassword: hashed,
		FirstName:      firstName,
		LastName:       lastName,
		IsActive:       isActive,
		EmailVerified:  verified,
		LastLoginAt:    lastLogin,
		CreatedAt:      createdAt.UTC(),
		UpdatedAt:      updatedAt.UTC(),
	}, nil
}

// FindIDByUsername resolves a username through its lookup table.
func (r *UserRepo) FindIDByUsername(ctx context.Context, username string) (uuid.UUID, bool, error) {
	return r.findID(ctx, stmtSelectIDByUsername, username)
}

// FindIDByEmail resolves an email through its lookup table.
func (r *UserRepo) FindIDByEmail(ctx context.Context, email string) (uuid.UUID, bool, error) {
	return r.findID(ctx, stmtSelectIDByEmail, email)
}

func (r *UserRepo) findID(ctx context.Context, stmt, key string) (uuid.UUID, bool, error) {
	var id gocql.UUID
	err := r.session.Query(ctx, stmt, key).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, decodeErr(err)
	}
	return uuid.UUID(id), true, nil
}

// FindIdentifiers returns the current (username, email) of the canonical
// row, used to key the lookup-table deletes.
func (r *UserRepo) FindIdentifiers(ctx context.Context, userID uuid.UUID) (string, string, bool, error) {
	var username, email string
	err := r.session.Query(ctx, stmtSelectIdentifiers, gocql.UUID(userID)).Scan(&username, &email)
	if errors.Is(err, gocql.ErrNotFound) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, decodeErr(err)
	}
	return username, email, true, nil
}

// UpdateProfile overwrites the named fields unconditionally.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName *string, isActive, emailVerified bool, updatedAt time.Time) error {
	return r.session.Query(ctx, stmtUpdateProfile,
		firstName, lastName, isActive, emailVerified, updatedAt, gocql.UUID(userID),
	).Exec()
}

// UpdatePassword overwrites the stored hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string, updatedAt time.Time) error {
	return r.session.Query(ctx, stmtUpdatePassword,
		hashedPassword, updatedAt, gocql.UUID(userID),
	).Exec()
}

// UpdateLastLogin stamps the login instant.
func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID, loginAt, updatedAt time.Time) error {
	return r.session.Query(ctx, stmtUpdateLastLogin,
		loginAt, updatedAt, gocql.UUID(userID),
	).Exec()
}

// --- batch contributors ---
//
// The repo never executes a batch it contributed to.

func (r *UserRepo) AddInsertUser(b *Batch, u *domain.User) {
	b.Add(stmtInsertUser,
		gocql.UUID(u.UserID), u.Username, u.Email, u.HashedPassword,
		u.FirstName, u.LastName, u.IsActive, u.EmailVerified,
		u.CreatedAt, u.UpdatedAt, u.LastLoginAt,
	)
}

func (r *UserRepo) AddInsertByUsername(b *Batch, username string, userID uuid.UUID) {
	b.Add(stmtInsertByUsername, username, gocql.UUID(userID))
}

func (r *UserRepo) AddInsertByEmail(b *Batch, email string, userID uuid.UUID) {
	b.Add(stmtInsertByEmail, email, gocql.UUID(userID))
}

func (r *UserRepo) AddDeleteByUsername(b *Batch, username string) {
	b.Add(stmtDeleteByUsername, username)
}

func (r *UserRepo) AddDeleteByEmail(b *Batch, email string) {
	b.Add(stmtDeleteByEmail, email)
}

func (r *UserRepo) AddDeleteUser(b *Batch, userID uuid.UUID) {
	b.Add(stmtDeleteUser, gocql.UUID(userID))
}
