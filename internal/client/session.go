package client

import (
	"sync"
	"time"

	"bazarly.org/internal/auth"
)

// Session holds the token and the cached account between calls. All access
// is mutex-guarded so concurrent requests observe a consistent state.
type Session struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	user      *auth.User
}

func newSession() *Session {
	return &Session{}
}

// State reports Anonymous or Authenticated. Expiry is not checked locally;
// only a server 401 retires a token.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return StateAnonymous
	}
	return StateAuthenticated
}

// Token returns the current bearer token, empty when anonymous.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ExpiresAt returns the server-reported token expiry.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// User returns the cached account, nil when anonymous.
func (s *Session) User() *auth.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) setToken(token string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = expiresAt
}

func (s *Session) setUser(user *auth.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.user = nil
		return
	}
	u := *user
	s.user = &u
}

// clear wipes the session and reports whether it held a token. Repeated
// calls are no-ops, which keeps racing 401 teardowns idempotent.
func (s *Session) clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.token != ""
	s.token = ""
	s.expiresAt = time.Time{}
	s.user = nil
	return had
}
