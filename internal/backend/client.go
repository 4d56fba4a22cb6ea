// Package backend is an HTTP client for the account API tool handlers call,
// matching the JSON field shapes in original_source/CXBuddyPro/mock_gxs_api.py.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hari87gxs/voice-agent-gateway/internal/errkind"
)

// Client calls the backend account API with a per-request bearer token.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client. timeout bounds every call per spec.md §8's
// "Backend account API call: <= 5 s" budget.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// AccountBalance is GET /api/account/balance's data payload.
type AccountBalance struct {
	AccountNumber  string  `json:"accountNumber"`
	MainBalance    float64 `json:"mainBalance"`
	SavingsBalance float64 `json:"savingsBalance"`
	TotalBalance   float64 `json:"totalBalance"`
}

// AccountDetails is GET /api/account/details's data payload.
type AccountDetails struct {
	UserID        string  `json:"userId"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	AccountType   string  `json:"accountType"`
	AccountNumber string  `json:"accountNumber"`
	AccountStatus string  `json:"accountStatus"`
	MainBalance   float64 `json:"mainBalance"`
	SavingsRate   float64 `json:"savingsInterestRate"`
}

// Transaction is one entry of GET /api/transactions/recent.
type Transaction struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
}

// CardDetails is GET /api/card/details's data payload.
type CardDetails struct {
	CardLastFour    string  `json:"cardLastFour"`
	CardStatus      string  `json:"cardStatus"`
	CardType        string  `json:"cardType"`
	CreditLimit     float64 `json:"creditLimit"`
	AvailableCredit float64 `json:"availableCredit"`
	UsedCredit      float64 `json:"usedCredit"`
	ExpiryDate      string  `json:"expiryDate"`
}

// CardStatusResult is the data payload of freeze/unfreeze card calls.
type CardStatusResult struct {
	CardStatus string `json:"cardStatus"`
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// rawAccountBalance mirrors mock_gxs_api.py's nested balance shape before
// this client flattens it into AccountBalance.
type rawAccountBalance struct {
	AccountNumber string `json:"accountNumber"`
	MainAccount   struct {
		Balance float64 `json:"balance"`
	} `json:"mainAccount"`
	SavingsAccount struct {
		Balance      float64 `json:"balance"`
		InterestRate float64 `json:"interestRate"`
	} `json:"savingsAccount"`
	TotalBalance float64 `json:"totalBalance"`
}

type rawAccountDetails struct {
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	AccountType   string `json:"accountType"`
	AccountNumber string `json:"accountNumber"`
	AccountStatus string `json:"accountStatus"`
	MainAccount   struct {
		Balance float64 `json:"balance"`
	} `json:"mainAccount"`
	SavingsAccount struct {
		InterestRate float64 `json:"interestRate"`
	} `json:"savingsAccount"`
}

type transactionsPayload struct {
	Transactions []Transaction `json:"transactions"`
	Count        int           `json:"count"`
}

// GetAccountBalance fetches and flattens the caller's account balances.
func (c *Client) GetAccountBalance(ctx context.Context, bearerToken string) (AccountBalance, error) {
	var raw envelope[rawAccountBalance]
	if err := c.getJSON(ctx, "/api/account/balance", nil, bearerToken, &raw); err != nil {
		return AccountBalance{}, err
	}
	return AccountBalance{
		AccountNumber:  raw.Data.AccountNumber,
		MainBalance:    raw.Data.MainAccount.Balance,
		SavingsBalance: raw.Data.SavingsAccount.Balance,
		TotalBalance:   raw.Data.TotalBalance,
	}, nil
}

// GetAccountDetails fetches the caller's full account profile.
func (c *Client) GetAccountDetails(ctx context.Context, bearerToken string) (AccountDetails, error) {
	var raw envelope[rawAccountDetails]
	if err := c.getJSON(ctx, "/api/account/details", nil, bearerToken, &raw); err != nil {
		return AccountDetails{}, err
	}
	return AccountDetails{
		UserID:        raw.Data.UserID,
		Name:          raw.Data.Name,
		Email:         raw.Data.Email,
		AccountType:   raw.Data.AccountType,
		AccountNumber: raw.Data.AccountNumber,
		AccountStatus: raw.Data.AccountStatus,
		MainBalance:   raw.Data.MainAccount.Balance,
		SavingsRate:   raw.Data.SavingsAccount.InterestRate,
	}, nil
}

// GetRecentTransactions fetches up to limit recent transactions.
func (c *Client) GetRecentTransactions(ctx context.Context, bearerToken string, limit int) ([]Transaction, error) {
	var raw envelope[transactionsPayload]
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, "/api/transactions/recent", q, bearerToken, &raw); err != nil {
		return nil, err
	}
	return raw.Data.Transactions, nil
}

// GetCardDetails fetches the caller's card details.
func (c *Client) GetCardDetails(ctx context.Context, bearerToken string) (CardDetails, error) {
	var raw envelope[CardDetails]
	if err := c.getJSON(ctx, "/api/card/details", nil, bearerToken, &raw); err != nil {
		return CardDetails{}, err
	}
	return raw.Data, nil
}

// FreezeCard freezes the caller's card.
func (c *Client) FreezeCard(ctx context.Context, bearerToken string) (CardStatusResult, error) {
	var raw envelope[CardStatusResult]
	if err := c.postJSON(ctx, "/api/card/freeze", bearerToken, &raw); err != nil {
		return CardStatusResult{}, err
	}
	return raw.Data, nil
}

// UnfreezeCard unfreezes the caller's card.
func (c *Client) UnfreezeCard(ctx context.Context, bearerToken string) (CardStatusResult, error) {
	var raw envelope[CardStatusResult]
	if err := c.postJSON(ctx, "/api/card/unfreeze", bearerToken, &raw); err != nil {
		return CardStatusResult{}, err
	}
	return raw.Data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, bearerToken string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errkind.Newf(errkind.BackendHTTPError, "building request: %w", err)
	}
	return c.do(req, bearerToken, out)
}

func (c *Client) postJSON(ctx context.Context, path string, bearerToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return errkind.Newf(errkind.BackendHTTPError, "building request: %w", err)
	}
	return c.do(req, bearerToken, out)
}

func (c *Client) do(req *http.Request, bearerToken string, out any) error {
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errkind.Newf(errkind.BackendTimeout, "backend call to %s timed out: %w", req.URL.Path, err)
		}
		return errkind.Newf(errkind.BackendHTTPError, "calling %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errkind.Newf(errkind.BackendHTTPError, "reading response from %s: %w", req.URL.Path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return errkind.New(errkind.ToolUnauthenticated, fmt.Errorf("backend rejected token for %s", req.URL.Path))
	}
	if resp.StatusCode >= 300 {
		return errkind.Newf(errkind.BackendHTTPError, "%s returned status %d: %s", req.URL.Path, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errkind.Newf(errkind.BackendHTTPError, "decoding response from %s: %w", req.URL.Path, err)
	}
	return nil
}
