package client

import (
	"sync"

	"github.com/isdelr/socialquest-be/internal/auth"
)

// Session holds the token pair of one logged-in user. It replaces any
// process-wide token state: every authenticated call takes a Session.
type Session struct {
	mu     sync.Mutex
	userID string
	tokens auth.TokenPair
}

// NewSession creates a session from a stored token pair.
func NewSession(userID string, tokens auth.TokenPair) *Session {
	return &Session{userID: userID, tokens: tokens}
}

// UserID returns the ID of the session owner.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Tokens returns a copy of the current token pair.
func (s *Session) Tokens() auth.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// Valid reports whether the session still holds an access token.
func (s *Session) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.AccessToken != ""
}

func (s *Session) update(tokens auth.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
}

// Invalidate clears the tokens. Further authenticated calls fail with ErrSessionExpired.
func (s *Session) Invalidate() {
	s.update(auth.TokenPair{})
}
