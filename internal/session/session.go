// Package session models one browser connection's lifetime state: its
// current agent role, its auth token (if any), and the mock-decoded
// identity that token carries. See spec.md §3 and §4.6 (C6).
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/hari87gxs/voice-agent-gateway/internal/persona"
)

// Session is the mutable per-connection state shared between the relay,
// the tool executor, and the agent controller. Fields other than Role are
// set once at session open and read many times; Role changes exactly once
// per handoff.
type Session struct {
	ID        string
	AuthToken string
	UserID    string
	UserName  string

	mu   sync.RWMutex
	role persona.Role
}

// New creates a session in the given initial role, per spec.md §4.6's
// auth-token-presence rule (decided by the caller before construction).
func New(authToken string, initialRole persona.Role, identity Identity) *Session {
	return &Session{
		ID:        "sess_" + uuid.New().String(),
		AuthToken: authToken,
		UserID:    identity.UserID,
		UserName:  identity.Name,
		role:      initialRole,
	}
}

// Role returns the session's current agent role.
func (s *Session) Role() persona.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// SetRole updates the session's agent role, used after a handoff.
func (s *Session) SetRole(role persona.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = role
}

// Authenticated reports whether this session carries a non-empty auth
// token, the gate spec.md §4.6 uses to pick the initial role and spec.md
// §4.3 uses to authorize requires_auth tools.
func (s *Session) Authenticated() bool {
	return s.AuthToken != ""
}
