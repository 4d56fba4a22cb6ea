// Package policy decides, via a rego module, whether a tool call may
// proceed given the session's authentication state. It adapts the
// orchestrator's allow/block/require_approval decision engine to the
// simpler allow/deny gate spec.md §4.3 describes for requires_auth tools.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"github.com/hari87gxs/voice-agent-gateway/internal/errkind"
)

// Decision is the outcome of evaluating a tool call against policy.
type Decision string

const (
	Allow Decision = "allow"
	Deny  Decision = "deny"
)

// Engine evaluates the compiled tool-gating policy.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine compiles policyContent (a rego module) into a ready-to-evaluate
// Engine.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.tool_gate.decision"),
		rego.Module("tool_gate.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, errkind.Newf(errkind.ConfigInvalid, "compiling tool gate policy: %w", err)
	}
	return &Engine{query: query}, nil
}

// Input is what the policy evaluates: the tool being called and whether
// the calling session is authenticated.
type Input struct {
	ToolName      string `json:"tool_name"`
	RequiresAuth  bool   `json:"requires_auth"`
	Authenticated bool   `json:"authenticated"`
}

// Evaluate returns the gate's decision for input.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Decision, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(map[string]any{
		"tool_name":     input.ToolName,
		"requires_auth": input.RequiresAuth,
		"authenticated": input.Authenticated,
	}))
	if err != nil {
		return Deny, fmt.Errorf("evaluating tool gate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Deny, nil
	}

	s, ok := results[0].Expressions[0].Value.(string)
	if !ok {
		return Deny, fmt.Errorf("tool gate policy returned non-string decision")
	}
	return Decision(s), nil
}

// DefaultPolicy allows every tool call outright unless it requires
// authentication and the session lacks it, matching spec.md §4.3's
// "tools flagged requires_auth fail ... if the session's auth token is
// absent" rule.
const DefaultPolicy = `
package tool_gate

default decision = "allow"

decision = "deny" {
	input.requires_auth
	not input.authenticated
}
`
