package persona

import (
	"testing"

	"github.com/hari87gxs/voice-agent-gateway/internal/errkind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	set, err := Load("config/personas.json")
	require.NoError(t, err)

	a, ok := set.Get(RoleA)
	require.True(t, ok)
	assert.Equal(t, "shimmer", a.VoiceID)
	assert.NotEmpty(t, a.Instructions)
	_, hasSearch := a.Tool("search_knowledge_base")
	assert.True(t, hasSearch)

	b, ok := set.Get(RoleB)
	require.True(t, ok)
	balanceTool, ok := b.Tool("get_account_balance")
	require.True(t, ok)
	assert.True(t, balanceTool.RequiresAuth)
}

func TestHandoffDelayClamped(t *testing.T) {
	assert.Equal(t, 1500*1_000_000, int(Persona{}.HandoffDelay()))
	assert.Equal(t, 800*1_000_000, int(Persona{HandoffDelayMs: 100}.HandoffDelay()))
	assert.Equal(t, 2500*1_000_000, int(Persona{HandoffDelayMs: 9000}.HandoffDelay()))
}

func TestParseMissingRequiredField(t *testing.T) {
	_, err := Parse([]byte(`{"A":{"voice_id":"shimmer"}}`))
	require.Error(t, err)
	assert.True(t, errkind.As(err, errkind.ConfigInvalid))
}

func TestParseMissingRole(t *testing.T) {
	_, err := Parse([]byte(`{"A":{
		"voice_id":"v","intro_utterance":"hi","instructions":"be nice",
		"vad_params":{"silence_duration_ms":500}
	}}`))
	require.Error(t, err)
	assert.True(t, errkind.As(err, errkind.ConfigInvalid))
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`not json`))
	require.Error(t, err)
	assert.True(t, errkind.As(err, errkind.ConfigInvalid))
}
