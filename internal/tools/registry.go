// Package tools implements the tool registry and executor described in
// spec.md §4.3 (C3): dispatch named upstream tool calls to handlers that
// touch the retrieval service, the backend account API, or emit a
// handoff signal, gated by the persona's tool schema and the policy
// engine.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hari87gxs/voice-agent-gateway/internal/persona"
	"github.com/hari87gxs/voice-agent-gateway/internal/session"
)

// HandoffSignal is returned by a handoff_to_<role> handler instead of a
// prose result: it tells the relay to schedule the out-of-band
// agent.handoff browser event without blocking the upstream response.
type HandoffSignal struct {
	TargetRole persona.Role
	Reason     string
}

// Result is a tool handler's outcome: text to feed back into the upstream
// conversation as function_call_output, and optionally a handoff signal.
type Result struct {
	Text    string
	Handoff *HandoffSignal
}

// Handler is a server-side tool implementation.
type Handler func(ctx context.Context, sess *session.Session, args json.RawMessage) (Result, error)

// Registry maps tool names to handlers, mirroring the orchestrator's
// ExecutorFunc registry but with a richer per-call return shape.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler for toolName. Registering the same name twice
// is a programmer error and panics, matching MustRegister's contract in
// the teacher registry.
func (r *Registry) Register(toolName string, h Handler) {
	if toolName == "" {
		panic("tools: tool name is required")
	}
	if h == nil {
		panic("tools: handler is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[toolName]; exists {
		panic(fmt.Sprintf("tools: handler already registered for %q", toolName))
	}
	r.handlers[toolName] = h
}

// Lookup returns the handler registered for toolName, if any.
func (r *Registry) Lookup(toolName string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[toolName]
	return h, ok
}
