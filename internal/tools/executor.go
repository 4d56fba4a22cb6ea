package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hari87gxs/voice-agent-gateway/internal/persona"
	"github.com/hari87gxs/voice-agent-gateway/internal/policy"
	"github.com/hari87gxs/voice-agent-gateway/internal/session"
)

// Executor is the C3 component: it gates a tool call through the policy
// engine, validates its arguments against the active persona's schema,
// and dispatches to the registered handler. It never panics or
// blocks the caller past whatever the handler itself does.
type Executor struct {
	registry *Registry
	engine   *policy.Engine
}

// NewExecutor builds an Executor over registry, gated by engine.
func NewExecutor(registry *Registry, engine *policy.Engine) *Executor {
	return &Executor{registry: registry, engine: engine}
}

// Execute runs the named tool against args (raw JSON from the upstream
// function_call_arguments.done event) on behalf of sess, using the
// active persona's declared schema for validation. It never returns a Go
// error for a business-logic failure — those become an error-kind
// prefixed Result.Text so the model can apologize verbally, per spec.md
// §4.5's failure semantics. It returns a Go error only when the tool is
// entirely unknown, which upstream would never legitimately send.
func (e *Executor) Execute(ctx context.Context, active persona.Persona, sess *session.Session, toolName string, rawArgs json.RawMessage) (Result, error) {
	schema, ok := active.Tool(toolName)
	if !ok {
		return Result{}, fmt.Errorf("tool %q is not declared for persona %q", toolName, active.RoleID)
	}

	handler, ok := e.registry.Lookup(toolName)
	if !ok {
		return Result{}, fmt.Errorf("tool %q has no registered handler", toolName)
	}

	decision, err := e.engine.Evaluate(ctx, policy.Input{
		ToolName:      toolName,
		RequiresAuth:  schema.RequiresAuth,
		Authenticated: sess.Authenticated(),
	})
	if err != nil {
		return Result{Text: errorText("authentication required")}, nil
	}
	if decision == policy.Deny {
		return Result{Text: errorText("authentication required")}, nil
	}

	args, err := validateArgs(schema, rawArgs)
	if err != nil {
		return Result{Text: errorText(err.Error())}, nil
	}
	normalized, err := json.Marshal(args)
	if err != nil {
		return Result{Text: errorText(err.Error())}, nil
	}

	result, err := handler(ctx, sess, normalized)
	if err != nil {
		return Result{Text: errorText(err.Error())}, nil
	}
	return result, nil
}

// errorText renders a per-call failure into the fixed "error: ..." prefix
// spec.md §9's example transcript expects ("error: authentication
// required", "error: argument 'query' required") so the model can
// recover or apologize on the next turn.
func errorText(detail string) string {
	return fmt.Sprintf("error: %s", detail)
}
