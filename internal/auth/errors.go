package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike so login responses never reveal account existence.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrInvalidToken indicates the bearer token is missing, malformed,
	// expired or failed signature validation.
	ErrInvalidToken = errors.New("auth: invalid token")

	ErrForbidden    = errors.New("auth: forbidden")
	ErrConflict     = errors.New("auth: already exists")
	ErrNotFound     = errors.New("auth: not found")
	ErrInvalidInput = errors.New("auth: invalid input")
)
