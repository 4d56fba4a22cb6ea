// Package persona loads and validates the immutable per-agent-role
// configuration described in spec.md §4.1 (C1): voice, instructions, tool
// schemas, and VAD parameters for each of the two agent roles.
package persona

import (
	"encoding/json"
	"os"
	"time"

	"github.com/hari87gxs/voice-agent-gateway/internal/errkind"
)

// Role identifies one of the two agent personas the gateway supports.
type Role string

const (
	RoleA Role = "A" // anonymous general assistant
	RoleB Role = "B" // authenticated account manager
)

// ArgSpec describes one named argument of a ToolSchema.
type ArgSpec struct {
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// ToolSchema is the wire-visible description of one callable tool, sent to
// the upstream model in session.update.
type ToolSchema struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	RequiresAuth bool               `json:"requires_auth"`
	Arguments    map[string]ArgSpec `json:"arguments_schema"`
}

// VADParams configures the upstream peer's server-side voice-activity
// detector, per spec.md §4.4.
type VADParams struct {
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
	CreateResponse    bool    `json:"create_response"`
}

// Persona is one agent's immutable configuration, loaded once at startup.
type Persona struct {
	RoleID         Role         `json:"role_id"`
	VoiceID        string       `json:"voice_id"`
	IntroUtterance string       `json:"intro_utterance"`
	Instructions   string       `json:"instructions"`
	Tools          []ToolSchema `json:"tools"`
	VAD            VADParams    `json:"vad_params"`
	HandoffDelayMs int          `json:"handoff_delay_ms"`
}

// HandoffDelay returns the configured handoff-notification delay, clamped
// into the 800-2500ms band mandated by spec.md §4.5/§9, defaulting to the
// midpoint when unset.
func (p Persona) HandoffDelay() time.Duration {
	ms := p.HandoffDelayMs
	if ms == 0 {
		ms = 1500
	}
	if ms < 800 {
		ms = 800
	}
	if ms > 2500 {
		ms = 2500
	}
	return time.Duration(ms) * time.Millisecond
}

// Tool looks up a tool schema by name.
func (p Persona) Tool(name string) (ToolSchema, bool) {
	for _, t := range p.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return ToolSchema{}, false
}

// Set holds the two loaded personas, keyed by role.
type Set struct {
	byRole map[Role]Persona
}

// Get returns the persona for role, and whether it exists.
func (s Set) Get(role Role) (Persona, bool) {
	p, ok := s.byRole[role]
	return p, ok
}

// document is the on-disk shape: a map of role id to persona fields, minus
// the role id itself (supplied by the map key).
type document map[string]struct {
	VoiceID        string       `json:"voice_id"`
	IntroUtterance string       `json:"intro_utterance"`
	Instructions   string       `json:"instructions"`
	Tools          []ToolSchema `json:"tools"`
	VAD            VADParams    `json:"vad_params"`
	HandoffDelayMs int          `json:"handoff_delay_ms"`
}

// Load parses and validates the persona document at path. Every required
// field on every role must be present or Load fails fast with
// errkind.ConfigInvalid, matching the C1 contract.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, errkind.Newf(errkind.ConfigInvalid, "reading persona config %q: %w", path, err)
	}
	return Parse(data)
}

// Parse validates and decodes a persona document already read into memory.
func Parse(data []byte) (Set, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Set{}, errkind.Newf(errkind.ConfigInvalid, "parsing persona config: %w", err)
	}

	byRole := make(map[Role]Persona, len(doc))
	for roleKey, fields := range doc {
		role := Role(roleKey)
		p := Persona{
			RoleID:         role,
			VoiceID:        fields.VoiceID,
			IntroUtterance: fields.IntroUtterance,
			Instructions:   fields.Instructions,
			Tools:          fields.Tools,
			VAD:            fields.VAD,
			HandoffDelayMs: fields.HandoffDelayMs,
		}
		if err := validate(p); err != nil {
			return Set{}, err
		}
		byRole[role] = p
	}

	for _, required := range []Role{RoleA, RoleB} {
		if _, ok := byRole[required]; !ok {
			return Set{}, errkind.Newf(errkind.ConfigInvalid, "persona config missing role %q", required)
		}
	}

	return Set{byRole: byRole}, nil
}

func validate(p Persona) error {
	missing := func(field string) error {
		return errkind.Newf(errkind.ConfigInvalid, "persona %q missing required field %q", p.RoleID, field)
	}
	if p.RoleID == "" {
		return missing("role_id")
	}
	if p.VoiceID == "" {
		return missing("voice_id")
	}
	if p.IntroUtterance == "" {
		return missing("intro_utterance")
	}
	if p.Instructions == "" {
		return missing("instructions")
	}
	if p.VAD.SilenceDurationMs <= 0 {
		return missing("vad_params.silence_duration_ms")
	}
	for i, tool := range p.Tools {
		if tool.Name == "" {
			return errkind.Newf(errkind.ConfigInvalid, "persona %q tool[%d] missing name", p.RoleID, i)
		}
	}
	return nil
}

// String implements fmt.Stringer for readable log lines.
func (r Role) String() string { return string(r) }
