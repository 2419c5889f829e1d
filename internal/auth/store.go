package auth

import "context"

// UserStore describes persistence operations required by the auth subsystem.
// Email uniqueness is enforced by the store (unique constraint), not here.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	FindUser(ctx context.Context, id string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	SetUserActive(ctx context.Context, userID string, active bool) error
	SetUserRole(ctx context.Context, userID string, role Role) error
	// DeactivateUser disables the account and hides its product listings in
	// one transaction, returning the number of hidden listings.
	DeactivateUser(ctx context.Context, userID string) (int64, error)
	// DeleteUser removes the account and its product listings in one
	// transaction, returning the number of deleted listings.
	DeleteUser(ctx context.Context, userID string) (int64, error)
}
