package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hari87gxs/voice-agent-gateway/internal/errkind"
)

func TestGetAccountBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/account/balance", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":{
			"accountNumber":"GXS-1",
			"mainAccount":{"balance":100.5},
			"savingsAccount":{"balance":200.25,"interestRate":3.88},
			"totalBalance":300.75
		}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	balance, err := client.GetAccountBalance(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "GXS-1", balance.AccountNumber)
	assert.Equal(t, 100.5, balance.MainBalance)
	assert.Equal(t, 200.25, balance.SavingsBalance)
	assert.Equal(t, 300.75, balance.TotalBalance)
}

func TestGetRecentTransactionsSendsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"success":true,"data":{"transactions":[{"date":"2026-01-01","description":"Coffee","amount":-5.5,"type":"debit"}],"count":1}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	txns, err := client.GetRecentTransactions(context.Background(), "tok", 7)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "Coffee", txns[0].Description)
}

func TestFreezeCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"success":true,"message":"Card frozen successfully","data":{"cardStatus":"frozen"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	result, err := client.FreezeCard(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "frozen", result.CardStatus)
}

func TestUnauthorizedMapsToToolUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Token expired"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.GetCardDetails(context.Background(), "expired-tok")
	require.Error(t, err)
	assert.True(t, errkind.As(err, errkind.ToolUnauthenticated))
}

func TestServerErrorMapsToBackendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.GetAccountDetails(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, errkind.As(err, errkind.BackendHTTPError))
}

func TestTimeoutMapsToBackendTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Millisecond)
	_, err := client.GetAccountDetails(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, errkind.As(err, errkind.BackendTimeout))
}
