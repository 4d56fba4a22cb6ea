package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hari87gxs/voice-agent-gateway/internal/backend"
	"github.com/hari87gxs/voice-agent-gateway/internal/persona"
	"github.com/hari87gxs/voice-agent-gateway/internal/session"
)

func TestGetAccountBalanceHandlerFormatsAmounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"accountNumber":"GXS-1","mainAccount":{"balance":100},"savingsAccount":{"balance":50},"totalBalance":150}}`))
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL, time.Second)
	handler := getAccountBalanceHandler(client)
	sess := session.New("tok", persona.RoleB, session.Identity{UserID: "u1"})

	result, err := handler(context.Background(), sess, nil)
	require.NoError(t, err)
	assert.Contains(t, result.Text, "100.00")
	assert.Contains(t, result.Text, "150.00")
}

func TestGetRecentTransactionsHandlerDefaultsLimit(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`{"success":true,"data":{"transactions":[],"count":0}}`))
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL, time.Second)
	handler := getRecentTransactionsHandler(client)
	sess := session.New("tok", persona.RoleB, session.Identity{UserID: "u1"})

	result, err := handler(context.Background(), sess, json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "5", gotLimit)
	assert.Equal(t, "No recent transactions found.", result.Text)
}

func TestGetRecentTransactionsHandlerClampsLimit(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`{"success":true,"data":{"transactions":[],"count":0}}`))
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL, time.Second)
	handler := getRecentTransactionsHandler(client)
	sess := session.New("tok", persona.RoleB, session.Identity{UserID: "u1"})

	_, err := handler(context.Background(), sess, json.RawMessage(`{"limit":500}`))
	require.NoError(t, err)
	assert.Equal(t, "20", gotLimit)
}

func TestCheckProductOwnershipHandler(t *testing.T) {
	handler := checkProductOwnershipHandler()
	sess := session.New("tok", persona.RoleB, session.Identity{UserID: "u1"})

	result, err := handler(context.Background(), sess, json.RawMessage(`{"product_type":"loan"}`))
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Text), &payload))
	assert.Equal(t, false, payload["has_product"])
	assert.Equal(t, true, payload["should_handoff"])
}

func TestCheckProductOwnershipHandlerMissingArgument(t *testing.T) {
	handler := checkProductOwnershipHandler()
	sess := session.New("tok", persona.RoleB, session.Identity{UserID: "u1"})

	_, err := handler(context.Background(), sess, json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestHandoffHandlerSignalsTargetRole(t *testing.T) {
	handler := handoffHandler(persona.RoleB)
	sess := session.New("", persona.RoleA, session.Identity{})

	result, err := handler(context.Background(), sess, json.RawMessage(`{"reason":"needs account info"}`))
	require.NoError(t, err)
	require.NotNil(t, result.Handoff)
	assert.Equal(t, persona.RoleB, result.Handoff.TargetRole)
	assert.Equal(t, "needs account info", result.Handoff.Reason)
}
