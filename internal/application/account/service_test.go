package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kcexn/collaborate-core/internal/domain"
	"github.com/kcexn/collaborate-core/internal/infrastructure/scylla"
)

// --- mocks ---

type mockStore struct{ mock.Mock }

func (m *mockStore) FindByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) FindIDByUsername(ctx context.Context, username string) (uuid.UUID, bool, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(uuid.UUID), args.Bool(1), args.Error(2)
}
func (m *mockStore) FindIDByEmail(ctx context.Context, email string) (uuid.UUID, bool, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(uuid.UUID), args.Bool(1), args.Error(2)
}
func (m *mockStore) FindIdentifiers(ctx context.Context, userID uuid.UUID) (string, string, bool, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.String(1), args.Bool(2), args.Error(3)
}
func (m *mockStore) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName *string, isActive, emailVerified bool, updatedAt time.Time) error {
	return m.Called(ctx, userID, firstName, lastName, isActive, emailVerified, updatedAt).Error(0)
}
func (m *mockStore) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string, updatedAt time.Time) error {
	return m.Called(ctx, userID, hashedPassword, updatedAt).Error(0)
}
func (m *mockStore) UpdateLastLogin(ctx context.Context, userID uuid.UUID, loginAt, updatedAt time.Time) error {
	return m.Called(ctx, userID, loginAt, updatedAt).Error(0)
}

// Batch contributors append marker statements so tests can assert on batch
// shape and ordering without a live session.
func (m *mockStore) AddInsertUser(b *scylla.Batch, u *domain.User) {
	b.Add("insert users", u)
}
func (m *mockStore) AddInsertByUsername(b *scylla.Batch, username string, userID uuid.UUID) {
	b.Add("insert users_by_username", username, userID)
}
func (m *mockStore) AddInsertByEmail(b *scylla.Batch, email string, userID uuid.UUID) {
	b.Add("insert users_by_email", email, userID)
}
func (m *mockStore) AddDeleteByUsername(b *scylla.Batch, username string) {
	b.Add("delete users_by_username", username)
}
func (m *mockStore) AddDeleteByEmail(b *scylla.Batch, email string) {
	b.Add("delete users_by_email", email)
}
func (m *mockStore) AddDeleteUser(b *scylla.Batch, userID uuid.UUID) {
	b.Add("delete users", userID)
}

type mockGateway struct {
	mock.Mock
	batch *scylla.Batch
}

func (m *mockGateway) ExecuteBatch(ctx context.Context, b *scylla.Batch) error {
	m.batch = b
	return m.Called(ctx, b).Error(0)
}
func (m *mockGateway) ExecuteBatchCAS(ctx context.Context, b *scylla.Batch) (bool, error) {
	m.batch = b
	args := m.Called(ctx, b)
	return args.Bool(0), args.Error(1)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// --- helpers ---

var testNow = time.Date(2024, 5, 10, 12, 30, 45, 123000000, time.UTC)

func newTestService(store *mockStore, gw *mockGateway) Service {
	return NewService(ServiceDeps{Store: store, Gateway: gw, Clock: fixedClock{t: testNow}})
}

func baseAccount() domain.NewAccount {
	first := "Alice"
	return domain.NewAccount{
		Username:       "alice",
		Email:          "alice@example.com",
		HashedPassword: "$2a$10$hash",
		FirstName:      &first,
		IsActive:       true,
		EmailVerified:  false,
	}
}

func ptr[T any](v T) *T { return &v }

// --- Create tests ---

func TestCreate_HappyPath(t *testing.T) {
	store := &mockStore{}
	gw := &mockGateway{}
	gw.On("ExecuteBatchCAS", mock.Anything, mock.Anything).Return(true, nil)

	svc := newTestService(store, gw)
	u, err := svc.Create(context.Background(), baseAccount())

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, u.UserID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, testNow, u.CreatedAt)
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)
	assert.Nil(t, u.LastLoginAt)
	gw.AssertExpectations(t)
}

func TestCreate_BatchShape(t *testing.T) {
	store := &mockStore{}
	gw := &mockGateway{}
	gw.On("ExecuteBatchCAS", mock.Anything, mock.Anything).Return(true, nil)

	svc := newTestService(store, gw)
	_, err := svc.Create(context.Background(), baseAccount())

	require.NoError(t, err)
	require.NotNil(t, gw.batch)
	assert.Equal(t, gocql.LoggedBatch, gw.batch.Kind())
	assert.Equal(t, gocql.LocalSerial, gw.batch.SerialConsistency())
	assert.Equal(t, []string{
		"insert users_by_username",
		"insert users_by_email",
		"insert users",
	}, gw.batch.Statements())
}

func TestCreate_UsernameTaken(t *testing.T) {
	existing := uuid.New()
	store := &mockStore{}
	store.On("FindIDByUsername", mock.Anything, "alice").Return(existing, true, nil)
	gw := &mockGateway{}
	gw.On("ExecuteBatchCAS", mock.Anything, mock.Anything).Return(false, nil)

	svc := newTestService(store, gw)
	_, err := svc.Create(context.Background(), baseAccount())

	require.Error(t, err)
	var taken *domain.UsernameTakenError
	require.True(t, errors.As(err, &taken))
	assert.Equal(t, "alice", taken.Username)
	store.AssertExpectations(t)
}

func TestCreate_EmailTaken(t *testing.T) {
	existing := uuid.New()
	store := &mockStore{}
	store.On("FindIDByUsername", mock.Anything, "alice").Return(uuid.Nil, false, nil)
	store.On("FindIDByEmail", mock.Anything, "alice@example.com").Return(existing, true, nil)
	gw := &mockGateway{}
	gw.On("ExecuteBatchCAS", mock.Anything, mock.Anything).Return(false, nil)

	svc := newTestService(store, gw)
	_, err := svc.Create(context.Background(), baseAccount())

	require.Error(t, err)
	var taken *domain.EmailTakenError
	require.True(t, errors.As(err, &taken))
	assert.Equal(t, "alice@example.com", taken.Email)
	store.AssertExpectations(t)
}

func TestCreate_ConflictWinnerVanished(t *testing.T) {
	store := &mockStore{}
	store.On("FindIDByUsername", mock.Anything, "alice").Return(uuid.Nil, false, nil)
	store.On("FindIDByEmail", mock.Anything, "alice@example.com").Return(uuid.Nil, false, nil)
	gw := &mockGateway{}
	gw.On("ExecuteBatchCAS", mock.Anything, mock.Anything).Return(false, nil)

	svc := newTestService(store, gw)
	_, err := svc.Create(context.Background(), baseAccount())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUsernameOrEmailTaken))
}

func TestCreate_GatewayError(t *testing.T) {
	store := &mockStore{}
	gw := &mockGateway{}
	cause := errors.New("no hosts available")
	gw.On("ExecuteBatchCAS", mock.Anything, mock.Anything).Return(false, cause)

	svc := newTestService(store, gw)
	_, err := svc.Create(context.Background(), baseAccount())

	require.Error(t, err)
	var dbErr *domain.DatabaseError
	require.True(t, errors.As(err, &dbErr))
	assert.True(t, errors.Is(err, cause))
}

// --- read path tests ---

func TestByID_NotFound(t *testing.T) {
	store := &mockStore{}
	store.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)

	svc := newTestService(store, nil)
	u, err := svc.ByID(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestByUsername_HappyPath(t *testing.T) {
	id := uuid.New()
	want := &domain.User{UserID: id, Username: "alice"}
	store := &mockStore{}
	store.On("FindIDByUsername", mock.Anything, "alice").Return(id, true, nil)
	store.On("FindByID", mock.Anything, id).Return(want, nil)

	svc := newTestService(store, nil)
	u, err := svc.ByUsername(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, want, u)
	store.AssertExpectations(t)
}

func TestByUsername_NotFound(t *testing.T) {
	store := &mockStore{}
	store.On("FindIDByUsername", mock.Anything, "ghost").Return(uuid.Nil, false, nil)

	svc := newTestService(store, nil)
	u, err := svc.ByUsername(context.Background(), "ghost")

	require.NoError(t, err)
	assert.Nil(t, u)
	store.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestByUsername_InconsistentData(t *testing.T) {
	id := uuid.New()
	store := &mockStore{}
	store.On("FindIDByUsername", mock.Anything, "alice").Return(id, true, nil)
	store.On("FindByID", mock.Anything, id).Return(nil, nil)

	svc := newTestService(store, nil)
	_, err := svc.ByUsername(context.Background(), "alice")

	require.Error(t, err)
	var inc *domain.InconsistentDataError
	require.True(t, errors.As(err, &inc))
	assert.Equal(t, id, inc.UserID)
}

func TestByEmail_InconsistentData(t *testing.T) {
	id := uuid.New()
	store := &mockStore{}
	store.On("FindIDByEmail", mock.Anything, "alice@example.com").Return(id, true, nil)
	store.On("FindByID", mock.Anything, id).Return(nil, nil)

	svc := newTestService(store, nil)
	_, err := svc.ByEmail(context.Background(), "alice@example.com")

	require.Error(t, err)
	var inc *domain.InconsistentDataError
	require.True(t, errors.As(err, &inc))
}

func TestByID_PreservesRowDecodeError(t *testing.T) {
	store := &mockStore{}
	decodeErr := &domain.RowDecodeError{Err: errors.New("bad column")}
	store.On("FindByID", mock.Anything, mock.Anything).Return(nil, decodeErr)

	svc := newTestService(store, nil)
	_, err := svc.ByID(context.Background(), uuid.New())

	require.Error(t, err)
	var rde *domain.RowDecodeError
	require.True(t, errors.As(err, &rde))
	var dbErr *domain.DatabaseError
	assert.False(t, errors.As(err, &dbErr))
}

// --- ForAuthentication tests ---

func authUser(id uuid.UUID) *domain.User {
	return &domain.User{
		UserID:         id,
		Username:       "alice",
		Email:          "alice@example.com",
		HashedPassword: "$2a$10$hash",
		IsActive:       true,
		EmailVerified:  true,
	}
}

func TestForAuthentication_EmailDispatch(t *testing.T) {
	id := uuid.New()
	store := &mockStore{}
	store.On("FindIDByEmail", mock.Anything, "alice@example.com").Return(id, true, nil)
	store.On("FindByID", mock.Anything, id).Return(authUser(id), nil)

	svc := newTestService(store, nil)
	details, err := svc.ForAuthentication(context.Background(), "alice@example.com", domain.AuthPolicy{})

	require.NoError(t, err)
	assert.Equal(t, id, details.UserID)
	store.AssertNotCalled(t, "FindIDByUsername", mock.Anything, mock.Anything)
}

func TestForAuthentication_UsernameDispatch(t *testing.T) {
	id := uuid.New()
	store := &mockStore{}
	store.On("FindIDByUsername", mock.Anything, "alice").Return(id, true, nil)
	store.On("FindByID", mock.Anything, id).Return(authUser(id), nil)

	svc := newTestService(store, nil)
	details, err := svc.ForAuthentication(context.Background(), "alice", domain.AuthPolicy{})

	require.NoError(t, err)
	assert.Equal(t, "alice", details.Username)
	store.AssertNotCalled(t, "FindIDByEmail", mock.Anything, mock.Anything)
}

func TestForAuthentication_NotFound(t *testing.T) {
	store := &mockStore{}
	store.On("FindIDByUsername", mock.Anything, "ghost").Return(uuid.Nil, false, nil)

	svc := newTestService(store, nil)
	_, err := svc.ForAuthentication(context.Background(), "ghost", domain.AuthPolicy{})

	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
}

func TestForAuthentication_RequireActive(t *testing.T) {
	id := uuid.New()
	u := authUser(id)
	u.IsActive = false
	store := &mockStore{}
	store.On("FindIDByUsername", mock.Anything, "alice").Return(id, true, nil)
	store.On("FindByID", mock.Anything, id).Return(u, nil)

	svc := newTestService(store, nil)
	_, err := svc.ForAuthentication(context.Background(), "alice", domain.AuthPolicy{RequireActive: true})

	assert.True(t, errors.Is(err, domain.ErrAccountNotActive))
}

func TestForAuthentication_RequireVerifiedEmail(t *testing.T) {
	id := uuid.New()
	u := authUser(id)
	u.EmailVerified = false
	store := &mockStore{}
	store.On("FindIDByUsername", mock.Anything, "alice").Return(id, true, nil)
	store.On("FindByID", mock.Anything, id).Return(u, nil)

	svc := newTestService(store, nil)
	_, err := svc.ForAuthentication(context.Background(), "alice", domain.AuthPolicy{RequireVerifiedEmail: true})

	assert.True(t, errors.Is(err, domain.ErrEmailNotVerified))
}

func TestForAuthentication_NoPolicy_ReturnsInactiveAccount(t *testing.T) {
	id := uuid.New()
	u := authUser(id)
	u.IsActive = false
	store := &mockStore{}
	store.On("FindIDByUsername", mock.Anything, "alice").Return(id, true, nil)
	store.On("FindByID", mock.Anything, id).Return(u, nil)

	svc := newTestService(store, nil)
	details, err := svc.ForAuthentication(context.Background(), "alice", domain.AuthPolicy{})

	require.NoError(t, err)
	assert.False(t, details.IsActive)
}

// --- update tests ---

func TestUpdateProfile_PatchPreservesUnsetFields(t *testing.T) {
	id := uuid.New()
	created := testNow.Add(-24 * time.Hour)
	existing := &domain.User{
		UserID:        id,
		Username:      "alice",
		Email:         "alice@example.com",
		FirstName:     ptr("Alice"),
		LastName:      ptr("Smith"),
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	store := &mockStore{}
	store.On("FindByID", mock.Anything, id).Return(existing, nil)
	store.On("UpdateProfile", mock.Anything, id, ptr("Alice"), ptr("Jones"), true, true, testNow).Return(nil)

	svc := newTestService(store, nil)
	u, err := svc.UpdateProfile(context.Background(), id, domain.UpdateProfileRequest{
		LastName: ptr("Jones"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Alice", *u.FirstName)
	assert.Equal(t, "Jones", *u.LastName)
	assert.Equal(t, created, u.CreatedAt)
	assert.Equal(t, testNow, u.UpdatedAt)
	store.AssertExpectations(t)
}

func TestUpdateProfile_NotFound(t *testing.T) {
	store := &mockStore{}
	store.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)

	svc := newTestService(store, nil)
	_, err := svc.UpdateProfile(context.Background(), uuid.New(), domain.UpdateProfileRequest{})

	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
	store.AssertNotCalled(t, "UpdateProfile",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePassword_BlindWrite(t *testing.T) {
	id := uuid.New()
	store := &mockStore{}
	store.On("UpdatePassword", mock.Anything, id, "$2a$10$newhash", testNow).Return(nil)

	svc := newTestService(store, nil)
	err := svc.UpdatePassword(context.Background(), id, "$2a$10$newhash")

	require.NoError(t, err)
	store.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestStampLastLogin_SameInstantForBothColumns(t *testing.T) {
	id := uuid.New()
	store := &mockStore{}
	store.On("UpdateLastLogin", mock.Anything, id, testNow, testNow).Return(nil)

	svc := newTestService(store, nil)
	err := svc.StampLastLogin(context.Background(), id)

	require.NoError(t, err)
	store.AssertExpectations(t)
}

// --- Delete tests ---

func TestDelete_HappyPath(t *testing.T) {
	id := uuid.New()
	store := &mockStore{}
	store.On("FindIdentifiers", mock.Anything, id).Return("alice", "alice@example.com", true, nil)
	gw := &mockGateway{}
	gw.On("ExecuteBatch", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(store, gw)
	err := svc.Delete(context.Background(), id)

	require.NoError(t, err)
	require.NotNil(t, gw.batch)
	assert.Equal(t, gocql.UnloggedBatch, gw.batch.Kind())
	assert.Equal(t, []string{
		"delete users_by_username",
		"delete users_by_email",
		"delete users",
	}, gw.batch.Statements())
}

func TestDelete_NotFound(t *testing.T) {
	store := &mockStore{}
	store.On("FindIdentifiers", mock.Anything, mock.Anything).Return("", "", false, nil)
	gw := &mockGateway{}

	svc := newTestService(store, gw)
	err := svc.Delete(context.Background(), uuid.New())

	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
	gw.AssertNotCalled(t, "ExecuteBatch", mock.Anything, mock.Anything)
}

func TestDelete_GatewayError(t *testing.T) {
	id := uuid.New()
	store := &mockStore{}
	store.On("FindIdentifiers", mock.Anything, id).Return("alice", "alice@example.com", true, nil)
	gw := &mockGateway{}
	cause := errors.New("write timeout")
	gw.On("ExecuteBatch", mock.Anything, mock.Anything).Return(cause)

	svc := newTestService(store, gw)
	err := svc.Delete(context.Background(), id)

	require.Error(t, err)
	var dbErr *domain.DatabaseError
	require.True(t, errors.As(err, &dbErr))
	assert.True(t, errors.Is(err, cause))
}
