// Package auth is the policy-and-hashing collaborator in front of the
// account store: it hashes passwords on the way in, verifies them on login,
// and issues bearer tokens. The store itself never sees a cleartext
// password.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kcexn/collaborate-core/internal/domain"
	"github.com/kcexn/collaborate-core/internal/pkg/id"
)

// ErrInvalidCredentials deliberately conceals whether the identifier or the
// password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LoginResult carries the bearer token and the authenticated identity.
type LoginResult struct {
	Bearer string
	User   *domain.AuthDetails
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
}

type accounts interface {
	Create(ctx context.Context, p domain.NewAccount) (*domain.User, error)
	ByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	ForAuthentication(ctx context.Context, identifier string, policy domain.AuthPolicy) (*domain.AuthDetails, error)
	StampLastLogin(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, newHashed string) error
}

type jwtSigner interface {
	Sign(userID, username, tokenID string) (string, error)
}

type service struct {
	accounts accounts
	signer   jwtSigner
}

func NewService(accounts accounts, signer jwtSigner) Service {
	return &service{accounts: accounts, signer: signer}
}

// Register hashes the password and creates the account. New accounts start
// active with an unverified email.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.accounts.Create(ctx, domain.NewAccount{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: string(hash),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		IsActive:       true,
		EmailVerified:  false,
	})
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	details, err := s.accounts.ForAuthentication(ctx, req.Identifier, domain.AuthPolicy{RequireActive: true})
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(details.HashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.accounts.StampLastLogin(ctx, details.UserID); err != nil {
		return nil, err
	}
	bearer, err := s.signer.Sign(details.UserID.String(), details.Username, id.New())
	if err != nil {
		return nil, err
	}
	return &LoginResult{Bearer: bearer, User: details}, nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	u, err := s.accounts.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.accounts.UpdatePassword(ctx, userID, string(hash))
}
