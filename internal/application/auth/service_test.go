package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kcexn/collaborate-core/internal/domain"
)

// --- mocks ---

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) Create(ctx context.Context, p domain.NewAccount) (*domain.User, error) {
	args := m.Called(ctx, p)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccounts) ByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccounts) ForAuthentication(ctx context.Context, identifier string, policy domain.AuthPolicy) (*domain.AuthDetails, error) {
	args := m.Called(ctx, identifier, policy)
	if d, _ := args.Get(0).(*domain.AuthDetails); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccounts) StampLastLogin(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockAccounts) UpdatePassword(ctx context.Context, userID uuid.UUID, newHashed string) error {
	return m.Called(ctx, userID, newHashed).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(userID, username, tokenID string) (string, error) {
	args := m.Called(userID, username, tokenID)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// --- Register tests ---

func TestRegister_HashesPasswordAndActivates(t *testing.T) {
	accts := &mockAccounts{}
	accts.On("Create", mock.Anything, mock.MatchedBy(func(p domain.NewAccount) bool {
		if p.HashedPassword == "s3cret" || p.HashedPassword == "" {
			return false
		}
		return p.IsActive && !p.EmailVerified &&
			bcrypt.CompareHashAndPassword([]byte(p.HashedPassword), []byte("s3cret")) == nil
	})).Return(&domain.User{Username: "alice"}, nil)

	svc := NewService(accts, nil)
	u, err := svc.Register(context.Background(), domain.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret",
	})

	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	accts.AssertExpectations(t)
}

func TestRegister_PropagatesConflict(t *testing.T) {
	accts := &mockAccounts{}
	accts.On("Create", mock.Anything, mock.Anything).Return(nil, &domain.UsernameTakenError{Username: "alice"})

	svc := NewService(accts, nil)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret",
	})

	var taken *domain.UsernameTakenError
	require.True(t, errors.As(err, &taken))
}

// --- Login tests ---

func TestLogin_HappyPath(t *testing.T) {
	id := uuid.New()
	details := &domain.AuthDetails{
		UserID:         id,
		Username:       "alice",
		HashedPassword: hashOf(t, "s3cret"),
		IsActive:       true,
	}
	accts := &mockAccounts{}
	accts.On("ForAuthentication", mock.Anything, "alice", domain.AuthPolicy{RequireActive: true}).Return(details, nil)
	accts.On("StampLastLogin", mock.Anything, id).Return(nil)
	signer := &mockSigner{}
	signer.On("Sign", id.String(), "alice", mock.AnythingOfType("string")).Return("bearer-token", nil)

	svc := NewService(accts, signer)
	res, err := svc.Login(context.Background(), domain.LoginRequest{Identifier: "alice", Password: "s3cret"})

	require.NoError(t, err)
	assert.Equal(t, "bearer-token", res.Bearer)
	assert.Equal(t, details, res.User)
	accts.AssertExpectations(t)
	signer.AssertExpectations(t)
}

func TestLogin_UnknownIdentifier_ConcealsReason(t *testing.T) {
	accts := &mockAccounts{}
	accts.On("ForAuthentication", mock.Anything, "ghost", mock.Anything).Return(nil, domain.ErrUserNotFound)

	svc := NewService(accts, nil)
	_, err := svc.Login(context.Background(), domain.LoginRequest{Identifier: "ghost", Password: "whatever"})

	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestLogin_WrongPassword(t *testing.T) {
	details := &domain.AuthDetails{
		UserID:         uuid.New(),
		Username:       "alice",
		HashedPassword: hashOf(t, "s3cret"),
		IsActive:       true,
	}
	accts := &mockAccounts{}
	accts.On("ForAuthentication", mock.Anything, "alice", mock.Anything).Return(details, nil)

	svc := NewService(accts, nil)
	_, err := svc.Login(context.Background(), domain.LoginRequest{Identifier: "alice", Password: "wrong"})

	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	accts.AssertNotCalled(t, "StampLastLogin", mock.Anything, mock.Anything)
}

func TestLogin_InactiveAccountSurfaces(t *testing.T) {
	accts := &mockAccounts{}
	accts.On("ForAuthentication", mock.Anything, "alice", mock.Anything).Return(nil, domain.ErrAccountNotActive)

	svc := NewService(accts, nil)
	_, err := svc.Login(context.Background(), domain.LoginRequest{Identifier: "alice", Password: "s3cret"})

	assert.True(t, errors.Is(err, domain.ErrAccountNotActive))
}

// --- ChangePassword tests ---

func TestChangePassword_HappyPath(t *testing.T) {
	id := uuid.New()
	accts := &mockAccounts{}
	accts.On("ByID", mock.Anything, id).Return(&domain.User{
		UserID:         id,
		HashedPassword: hashOf(t, "old-pass"),
	}, nil)
	accts.On("UpdatePassword", mock.Anything, id, mock.MatchedBy(func(h string) bool {
		return bcrypt.CompareHashAndPassword([]byte(h), []byte("new-pass")) == nil
	})).Return(nil)

	svc := NewService(accts, nil)
	err := svc.ChangePassword(context.Background(), id, "old-pass", "new-pass")

	require.NoError(t, err)
	accts.AssertExpectations(t)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	id := uuid.New()
	accts := &mockAccounts{}
	accts.On("ByID", mock.Anything, id).Return(&domain.User{
		UserID:         id,
		HashedPassword: hashOf(t, "old-pass"),
	}, nil)

	svc := NewService(accts, nil)
	err := svc.ChangePassword(context.Background(), id, "not-old-pass", "new-pass")

	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	accts.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePassword_UserGone(t *testing.T) {
	accts := &mockAccounts{}
	accts.On("ByID", mock.Anything, mock.Anything).Return(nil, nil)

	svc := NewService(accts, nil)
	err := svc.ChangePassword(context.Background(), uuid.New(), "old", "new")

	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
}
