package auth

import "time"

// User represents a registered account in the credential store.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the authenticated actor attached to a request context after
// token verification. It carries the resolved user and its role.
type Principal struct {
	User *User
	Role Role
}

// NewPrincipal wraps a resolved user.
func NewPrincipal(user *User) Principal {
	return Principal{User: user, Role: user.Role}
}

// Allows reports whether the principal's role may execute the operation.
func (p Principal) Allows(op Operation) bool {
	return p.Role.Allows(op)
}
