// Package account implements the semantic operations over the three account
// tables: creation with its uniqueness protocol, the read paths, the typed
// updates, and deletion. The datastore cannot condition a write on the state
// of two different partitions, so creation synthesizes the guarantee with a
// logged batch whose lookup inserts carry IF NOT EXISTS semantics.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kcexn/collaborate-core/internal/domain"
	"github.com/kcexn/collaborate-core/internal/infrastructure/scylla"
	"github.com/kcexn/collaborate-core/internal/pkg/clock"
)

type Service interface {
	Create(ctx context.Context, p domain.NewAccount) (*domain.User, error)
	ByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	ByUsername(ctx context.Context, username string) (*domain.User, error)
	ByEmail(ctx context.Context, email string) (*domain.User, error)
	ForAuthentication(ctx context.Context, identifier string, policy domain.AuthPolicy) (*domain.AuthDetails, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req domain.UpdateProfileRequest) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, newHashed string) error
	StampLastLogin(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// accountStore is what the service needs from the repository: direct reads
// and writes against the canonical table, and batch contributors for the
// multi-table create and delete protocols.
type accountStore interface {
	FindByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	FindIDByUsername(ctx context.Context, username string) (uuid.UUID, bool, error)
	FindIDByEmail(ctx context.Context, email string) (uuid.UUID, bool, error)
	FindIdentifiers(ctx context.Context, userID uuid.UUID) (username, email string, ok bool, err error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName *string, isActive, emailVerified bool, updatedAt time.Time) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string, updatedAt time.Time) error
	UpdateLastLogin(ctx context.Context, userID uuid.UUID, loginAt, updatedAt time.Time) error

	AddInsertUser(b *scylla.Batch, u *domain.User)
	AddInsertByUsername(b *scylla.Batch, username string, userID uuid.UUID)
	AddInsertByEmail(b *scylla.Batch, email string, userID uuid.UUID)
	AddDeleteByUsername(b *scylla.Batch, username string)
	AddDeleteByEmail(b *scylla.Batch, email string)
	AddDeleteUser(b *scylla.Batch, userID uuid.UUID)
}

// batchExecutor is the gateway's batch surface. The service decides batching
// strategy and consistency; the gateway only runs what it is handed.
type batchExecutor interface {
	ExecuteBatch(ctx context.Context, b *scylla.Batch) error
	ExecuteBatchCAS(ctx context.Context, b *scylla.Batch) (applied bool, err error)
}

type service struct {
	store   accountStore
	gateway batchExecutor
	clock   clock.Clock
}

type ServiceDeps struct {
	Store   accountStore
	Gateway batchExecutor
	Clock   clock.Clock
}

func NewService(deps ServiceDeps) Service {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	return &service{store: deps.Store, gateway: deps.Gateway, clock: deps.Clock}
}

// storeErr wraps datastore failures, leaving already-typed domain errors
// intact.
func storeErr(op string, err error) error {
	var rde *domain.RowDecodeError
	if errors.As(err, &rde) {
		return err
	}
	return &domain.DatabaseError{Op: op, Err: err}
}

// Create inserts the two lookup rows and the canonical row in a single
// logged batch. The lookup inserts carry IF NOT EXISTS, resolved at
// LocalSerial, and the store applies the batch all-or-nothing once the
// conditions resolve. On applied=false the taken attribute is found by two
// point lookups, username first.
func (s *service) Create(ctx context.Context, p domain.NewAccount) (*domain.User, error) {
	now := s.clock.Now()
	u := &domain.User{
		UserID:         uuid.New(),
		Username:       p.Username,
		Email:          p.Email,
		HashedPassword: p.HashedPassword,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		IsActive:       p.IsActive,
		EmailVerified:  p.EmailVerified,
		LastLoginAt:    nil,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	b := scylla.NewLoggedBatch()
	b.SetSerialConsistency(scylla.LocalSerial)
	s.store.AddInsertByUsername(b, u.Username, u.UserID)
	s.store.AddInsertByEmail(b, u.Email, u.UserID)
	s.store.AddInsertUser(b, u)

	applied, err := s.gateway.ExecuteBatchCAS(ctx, b)
	if err != nil {
		return nil, storeErr("create user", err)
	}
	if applied {
		return u, nil
	}

	// One or both lookup LWTs lost. Report the winner in order of discovery.
	if _, ok, err := s.store.FindIDByUsername(ctx, u.Username); err != nil {
		return nil, storeErr("create user: check username", err)
	} else if ok {
		return nil, &domain.UsernameTakenError{Username: u.Username}
	}
	if _, ok, err := s.store.FindIDByEmail(ctx, u.Email); err != nil {
		return nil, storeErr("create user: check email", err)
	} else if ok {
		return nil, &domain.EmailTakenError{Email: u.Email}
	}
	// Neither lookup found a prior owner: a concurrent writer lost its own
	// race and its rows have since been cleaned up.
	return nil, domain.ErrUsernameOrEmailTaken
}

// ByID returns the account, or (nil, nil) when absent.
func (s *service) ByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr("find user by id", err)
	}
	return u, nil
}

// ByUsername resolves the lookup table then reads the canonical row. A
// lookup hit with a missing canonical row is surfaced, not healed: the
// authoritative state is ambiguous and needs operator action.
func (s *service) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	id, ok, err := s.store.FindIDByUsername(ctx, username)
	if err != nil {
		return nil, storeErr("find user by username", err)
	}
	if !ok {
		return nil, nil
	}
	return s.byLookup(ctx, id)
}

// ByEmail is symmetric to ByUsername.
func (s *service) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, ok, err := s.store.FindIDByEmail(ctx, email)
	if err != nil {
		return nil, storeErr("find user by email", err)
	}
	if !ok {
		return nil, nil
	}
	return s.byLookup(ctx, id)
}

func (s *service) byLookup(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find user by id", err)
	}
	if u == nil {
		return nil, &domain.InconsistentDataError{UserID: id}
	}
	return u, nil
}

// ForAuthentication treats the identifier as an email when it contains '@',
// otherwise as a username. Policy flags are opt-in; by default the caller
// receives the AuthDetails and decides.
func (s *service) ForAuthentication(ctx context.Context, identifier string, policy domain.AuthPolicy) (*domain.AuthDetails, error) {
	var (
		u   *domain.User
		err error
	)
	if strings.Contains(identifier, "@") {
		u, err = s.ByEmail(ctx, identifier)
	} else {
		u, err = s.ByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, &domain.DatabaseError{Op: "authentication lookup", Err: err}
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	if policy.RequireActive && !u.IsActive {
		return nil, domain.ErrAccountNotActive
	}
	if policy.RequireVerifiedEmail && !u.EmailVerified {
		return nil, domain.ErrEmailNotVerified
	}
	return &domain.AuthDetails{
		UserID:         u.UserID,
		Username:       u.Username,
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		IsActive:       u.IsActive,
		EmailVerified:  u.EmailVerified,
	}, nil
}

// UpdateProfile reads the current account, overlays the provided fields,
// advances updated_at, and writes. Username and email cannot change here.
func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req domain.UpdateProfileRequest) (*domain.User, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr("update profile", err)
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}

	if req.FirstName != nil {
		u.FirstName = req.FirstName
	}
	if req.LastName != nil {
		u.LastName = req.LastName
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.EmailVerified != nil {
		u.EmailVerified = *req.EmailVerified
	}
	u.UpdatedAt = s.clock.Now()

	if err := s.store.UpdateProfile(ctx, userID, u.FirstName, u.LastName, u.IsActive, u.EmailVerified, u.UpdatedAt); err != nil {
		return nil, storeErr("update profile", err)
	}
	return u, nil
}

// UpdatePassword is a blind overwrite; verifying the old password is the
// caller's responsibility.
func (s *service) UpdatePassword(ctx context.Context, userID uuid.UUID, newHashed string) error {
	if err := s.store.UpdatePassword(ctx, userID, newHashed, s.clock.Now()); err != nil {
		return storeErr("update password", err)
	}
	return nil
}

// StampLastLogin writes last_login_at and updated_at with the same instant.
func (s *service) StampLastLogin(ctx context.Context, userID uuid.UUID) error {
	now := s.clock.Now()
	if err := s.store.UpdateLastLogin(ctx, userID, now, now); err != nil {
		return storeErr("stamp last login", err)
	}
	return nil
}

// Delete removes the three rows for an account. The rows live in three
// different partitions, so the batch is unlogged and a crash mid-way can
// leave orphan lookup rows; deletes are idempotent per key, so re-running
// the operation completes the removal.
func (s *service) Delete(ctx context.Context, userID uuid.UUID) error {
	username, email, ok, err := s.store.FindIdentifiers(ctx, userID)
	if err != nil {
		return storeErr("delete user", err)
	}
	if !ok {
		return domain.ErrUserNotFound
	}

	b := scylla.NewUnloggedBatch()
	s.store.AddDeleteByUsername(b, username)
	s.store.AddDeleteByEmail(b, email)
	s.store.AddDeleteUser(b, userID)

	if err := s.gateway.ExecuteBatch(ctx, b); err != nil {
		return storeErr("delete user", err)
	}
	return nil
}
