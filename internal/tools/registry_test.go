package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hari87gxs/voice-agent-gateway/internal/session"
)

func TestRegistryLookupUnknown(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Lookup("nope")
	assert.False(t, ok)
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Register("echo", func(ctx context.Context, sess *session.Session, args json.RawMessage) (Result, error) {
		return Result{Text: string(args)}, nil
	})

	h, ok := r.Lookup("echo")
	require.True(t, ok)

	result, err := h(context.Background(), nil, json.RawMessage(`"hi"`))
	require.NoError(t, err)
	assert.Equal(t, `"hi"`, result.Text)
}

func TestRegistryRegisterDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register("dup", func(ctx context.Context, sess *session.Session, args json.RawMessage) (Result, error) {
		return Result{}, nil
	})
	assert.Panics(t, func() {
		r.Register("dup", func(ctx context.Context, sess *session.Session, args json.RawMessage) (Result, error) {
			return Result{}, nil
		})
	})
}

func TestRegistryRegisterEmptyNamePanics(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() {
		r.Register("", func(ctx context.Context, sess *session.Session, args json.RawMessage) (Result, error) {
			return Result{}, nil
		})
	})
}
