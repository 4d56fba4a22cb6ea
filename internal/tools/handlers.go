package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hari87gxs/voice-agent-gateway/internal/backend"
	"github.com/hari87gxs/voice-agent-gateway/internal/persona"
	"github.com/hari87gxs/voice-agent-gateway/internal/retrieval"
	"github.com/hari87gxs/voice-agent-gateway/internal/session"
)

// defaultRecentTransactionsLimit matches the original CXBuddyPro handler's
// unspecified-limit default.
const defaultRecentTransactionsLimit = 5

// maxRecentTransactionsLimit enforces spec.md §4.3's "limit?: int <= 20".
const maxRecentTransactionsLimit = 20

// productsOwnedByEveryUser is the mock catalogue backing
// check_product_ownership: every mock user has an account and a card, and
// nothing else, matching original_source/CXBuddyPro/server.py's
// `has_product = product_type in []` (no user owns loans, investments, or
// insurance products in the mock backend).
var productsOwnedByEveryUser = map[string]bool{
	"account": true,
	"card":    true,
}

// RegisterDefaults registers every canonical tool handler from spec.md
// §4.3 onto registry.
func RegisterDefaults(registry *Registry, retrievalSvc *retrieval.Service, backendClient *backend.Client) {
	registry.Register("search_knowledge_base", searchKnowledgeBaseHandler(retrievalSvc))
	registry.Register("get_account_balance", getAccountBalanceHandler(backendClient))
	registry.Register("get_account_details", getAccountDetailsHandler(backendClient))
	registry.Register("get_recent_transactions", getRecentTransactionsHandler(backendClient))
	registry.Register("get_card_details", getCardDetailsHandler(backendClient))
	registry.Register("freeze_card", freezeCardHandler(backendClient))
	registry.Register("unfreeze_card", unfreezeCardHandler(backendClient))
	registry.Register("check_product_ownership", checkProductOwnershipHandler())
	registry.Register("handoff_to_A", handoffHandler(persona.RoleA))
	registry.Register("handoff_to_B", handoffHandler(persona.RoleB))
}

func searchKnowledgeBaseHandler(svc *retrieval.Service) Handler {
	return func(ctx context.Context, sess *session.Session, rawArgs json.RawMessage) (Result, error) {
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(rawArgs, &args); err != nil || args.Query == "" {
			return Result{}, fmt.Errorf("argument 'query' required")
		}
		text, err := svc.Query(ctx, args.Query, 0)
		if err != nil {
			return Result{}, fmt.Errorf("knowledge base search failed: %w", err)
		}
		return Result{Text: text}, nil
	}
}

func getAccountBalanceHandler(client *backend.Client) Handler {
	return func(ctx context.Context, sess *session.Session, _ json.RawMessage) (Result, error) {
		balance, err := client.GetAccountBalance(ctx, sess.AuthToken)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: fmt.Sprintf(
			"Main account balance: SGD %.2f. Savings balance: SGD %.2f. Total balance: SGD %.2f.",
			balance.MainBalance, balance.SavingsBalance, balance.TotalBalance,
		)}, nil
	}
}

func getAccountDetailsHandler(client *backend.Client) Handler {
	return func(ctx context.Context, sess *session.Session, _ json.RawMessage) (Result, error) {
		details, err := client.GetAccountDetails(ctx, sess.AuthToken)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: fmt.Sprintf(
			"Account holder: %s. Account type: %s, number %s, status %s. Main balance SGD %.2f, savings interest rate %.2f%%.",
			details.Name, details.AccountType, details.AccountNumber, details.AccountStatus,
			details.MainBalance, details.SavingsRate,
		)}, nil
	}
}

func getRecentTransactionsHandler(client *backend.Client) Handler {
	return func(ctx context.Context, sess *session.Session, rawArgs json.RawMessage) (Result, error) {
		var args struct {
			Limit int `json:"limit"`
		}
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return Result{}, fmt.Errorf("argument 'limit' must be an integer")
		}
		limit := args.Limit
		if limit <= 0 {
			limit = defaultRecentTransactionsLimit
		}
		if limit > maxRecentTransactionsLimit {
			limit = maxRecentTransactionsLimit
		}

		txns, err := client.GetRecentTransactions(ctx, sess.AuthToken, limit)
		if err != nil {
			return Result{}, err
		}
		if len(txns) == 0 {
			return Result{Text: "No recent transactions found."}, nil
		}

		text := fmt.Sprintf("Here are your %d most recent transactions:\n", len(txns))
		for _, t := range txns {
			text += fmt.Sprintf("- %s: %s, SGD %.2f (%s)\n", t.Date, t.Description, t.Amount, t.Type)
		}
		return Result{Text: text}, nil
	}
}

func getCardDetailsHandler(client *backend.Client) Handler {
	return func(ctx context.Context, sess *session.Session, _ json.RawMessage) (Result, error) {
		card, err := client.GetCardDetails(ctx, sess.AuthToken)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: fmt.Sprintf(
			"Card ending %s is %s. Credit limit SGD %.2f, available credit SGD %.2f, expires %s.",
			card.CardLastFour, card.CardStatus, card.CreditLimit, card.AvailableCredit, card.ExpiryDate,
		)}, nil
	}
}

func freezeCardHandler(client *backend.Client) Handler {
	return func(ctx context.Context, sess *session.Session, _ json.RawMessage) (Result, error) {
		result, err := client.FreezeCard(ctx, sess.AuthToken)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: fmt.Sprintf("Your card is now %s.", result.CardStatus)}, nil
	}
}

func unfreezeCardHandler(client *backend.Client) Handler {
	return func(ctx context.Context, sess *session.Session, _ json.RawMessage) (Result, error) {
		result, err := client.UnfreezeCard(ctx, sess.AuthToken)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: fmt.Sprintf("Your card is now %s.", result.CardStatus)}, nil
	}
}

func checkProductOwnershipHandler() Handler {
	return func(ctx context.Context, sess *session.Session, rawArgs json.RawMessage) (Result, error) {
		var args struct {
			ProductType string `json:"product_type"`
		}
		if err := json.Unmarshal(rawArgs, &args); err != nil || args.ProductType == "" {
			return Result{}, fmt.Errorf("argument 'product_type' required")
		}

		owns := productsOwnedByEveryUser[args.ProductType]
		payload, _ := json.Marshal(map[string]any{
			"has_product":    owns,
			"product_type":   args.ProductType,
			"should_handoff": !owns,
		})
		return Result{Text: string(payload)}, nil
	}
}

func handoffHandler(target persona.Role) Handler {
	return func(ctx context.Context, sess *session.Session, rawArgs json.RawMessage) (Result, error) {
		var args struct {
			Reason  string `json:"reason"`
			Context string `json:"context"`
		}
		json.Unmarshal(rawArgs, &args) // best-effort: absent reason is not fatal

		return Result{
			Text:    "Connecting you now...",
			Handoff: &HandoffSignal{TargetRole: target, Reason: args.Reason},
		}, nil
	}
}
