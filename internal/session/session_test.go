package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hari87gxs/voice-agent-gateway/internal/persona"
)

func TestNewSessionAuthenticated(t *testing.T) {
	s := New("token-abc", persona.RoleB, Identity{UserID: "u1", Name: "Ada"})
	assert.True(t, s.Authenticated())
	assert.Equal(t, persona.RoleB, s.Role())
	assert.Equal(t, "u1", s.UserID)
	assert.NotEmpty(t, s.ID)
}

func TestNewSessionAnonymous(t *testing.T) {
	s := New("", persona.RoleA, Identity{})
	assert.False(t, s.Authenticated())
	assert.Equal(t, persona.RoleA, s.Role())
}

func TestSessionSetRole(t *testing.T) {
	s := New("token", persona.RoleB, Identity{UserID: "u1"})
	s.SetRole(persona.RoleA)
	assert.Equal(t, persona.RoleA, s.Role())
}
