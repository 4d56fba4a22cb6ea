package session

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeMockJWT(t *testing.T, sub, name string, exp int64) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payload, err := json.Marshal(claims{Sub: sub, Name: name, Exp: exp})
	require.NoError(t, err)
	body := base64.RawURLEncoding.EncodeToString(payload)
	return header + "." + body + ".signature"
}

func TestDecodeMockTokenValidJWT(t *testing.T) {
	token := makeMockJWT(t, "user_42", "Ada", time.Now().Add(time.Hour).Unix())
	id, ok := DecodeMockToken(token)
	require.True(t, ok)
	assert.Equal(t, "user_42", id.UserID)
	assert.Equal(t, "Ada", id.Name)
}

func TestDecodeMockTokenExpired(t *testing.T) {
	token := makeMockJWT(t, "user_42", "Ada", time.Now().Add(-time.Hour).Unix())
	_, ok := DecodeMockToken(token)
	assert.False(t, ok)
}

func TestDecodeMockTokenOpaqueString(t *testing.T) {
	id, ok := DecodeMockToken("opaque-user-id")
	require.True(t, ok)
	assert.Equal(t, "opaque-user-id", id.UserID)
	assert.Empty(t, id.Name)
}

func TestDecodeMockTokenEmpty(t *testing.T) {
	_, ok := DecodeMockToken("")
	assert.False(t, ok)
}

func TestDecodeMockTokenMalformedMiddleSegment(t *testing.T) {
	id, ok := DecodeMockToken("a.not-base64!!!.c")
	require.True(t, ok)
	assert.Equal(t, "a.not-base64!!!.c", id.UserID)
}
