package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service wires the credential store and token signer into the registration,
// login and verification flows.
type Service struct {
	store  UserStore
	signer *TokenSigner
	now    func() time.Time
}

// NewService constructs the auth service.
func NewService(store UserStore, signer *TokenSigner) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: user store is required")
	}
	if signer == nil {
		return nil, errors.New("auth: token signer is required")
	}
	return &Service{store: store, signer: signer, now: time.Now}, nil
}

// Signer exposes the token signer for collaborators that only verify tokens.
func (s *Service) Signer() *TokenSigner { return s.signer }

// RegisterParams carries public registration input.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a buyer account. Duplicate emails fail with ErrConflict and
// leave no partial state behind.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	email, err := NormalizeEmail(params.Email)
	if err != nil {
		return nil, err
	}
	if len(params.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(params.FirstName),
		LastName:     strings.TrimSpace(params.LastName),
		Role:         RoleBuyer,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// IssueToken authenticates the credentials and mints a bearer token whose
// subject is the account email. Unknown email, wrong password and inactive
// account all collapse into ErrInvalidCredentials.
func (s *Service) IssueToken(ctx context.Context, email, password string) (string, time.Time, *User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}
	if password == "" {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}
	user, err := s.store.FindUserByEmail(ctx, normalized)
	if err != nil {
		// Only a missing account is a credential failure; a store outage
		// must surface as such, never as a 401.
		if errors.Is(err, ErrNotFound) {
			return "", time.Time{}, nil, ErrInvalidCredentials
		}
		return "", time.Time{}, nil, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}
	token, expiresAt, err := s.signer.Sign(user.Email, user.Role)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	return token, expiresAt, user, nil
}

// AuthenticateToken validates a bearer token and resolves its subject to an
// active principal.
func (s *Service) AuthenticateToken(ctx context.Context, token string) (Principal, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	user, err := s.store.FindUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidToken
		}
		return Principal{}, err
	}
	if !user.IsActive {
		return Principal{}, ErrInvalidToken
	}
	return NewPrincipal(user), nil
}

// DeactivateAccount disables the account after confirming the password. The
// account and its listings are hidden in one store transaction; the number of
// hidden listings is returned. Deactivating an inactive account is a no-op.
func (s *Service) DeactivateAccount(ctx context.Context, userID, password string) (*User, int64, error) {
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, 0, fmt.Errorf("%w: incorrect password", ErrInvalidInput)
	}
	if !user.IsActive {
		return user, 0, nil
	}
	hidden, err := s.store.DeactivateUser(ctx, user.ID)
	if err != nil {
		return nil, 0, err
	}
	user.IsActive = false
	return user, hidden, nil
}

// ReactivateAccount re-enables a deactivated account using full credentials,
// since its owner cannot obtain a token while inactive.
func (s *Service) ReactivateAccount(ctx context.Context, email, password string) (*User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.store.FindUserByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%w: incorrect password", ErrInvalidInput)
	}
	if user.IsActive {
		return user, nil
	}
	if err := s.store.SetUserActive(ctx, user.ID, true); err != nil {
		return nil, err
	}
	user.IsActive = true
	return user, nil
}

// DeleteAccount permanently removes the account after confirming the
// password. The account and its listings go away in one store transaction;
// nothing is touched until the password checks out. Returns the number of
// deleted listings.
func (s *Service) DeleteAccount(ctx context.Context, userID, password string) (int64, error) {
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return 0, fmt.Errorf("%w: incorrect password", ErrInvalidInput)
	}
	return s.store.DeleteUser(ctx, user.ID)
}

// ListUsers returns every account. Admin surface only.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.store.ListUsers(ctx)
}

// SetUserRole changes an account's role. Admin surface only; principals never
// change their own role through this service.
func (s *Service) SetUserRole(ctx context.Context, userID string, role Role) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetUserRole(ctx, user.ID, role); err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

// SetUserActive flips an account's active flag. Admin surface only.
// Suspension hides the account's listings in the same transaction, mirroring
// self-deactivation; re-enabling does not restore them.
func (s *Service) SetUserActive(ctx context.Context, userID string, active bool) (*User, error) {
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsActive == active {
		return user, nil
	}
	if active {
		if err := s.store.SetUserActive(ctx, user.ID, true); err != nil {
			return nil, err
		}
	} else if _, err := s.store.DeactivateUser(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsActive = active
	return user, nil
}

// NormalizeEmail lower-cases and trims the address and rejects obvious junk.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	return email, nil
}
