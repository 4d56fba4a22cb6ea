// Package upstream is the C4 session manager: it dials one realtime
// connection to the upstream model per browser session and configures it
// with the active persona's voice, instructions, tools, and VAD settings.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hari87gxs/voice-agent-gateway/internal/errkind"
	"github.com/hari87gxs/voice-agent-gateway/internal/persona"
	"github.com/hari87gxs/voice-agent-gateway/internal/protocol"
)

// Manager opens and configures upstream realtime connections.
type Manager struct {
	endpoint       string
	apiKey         string
	deploymentName string
	connectTimeout time.Duration
}

// NewManager builds a Manager. endpoint is the full wss:// URL of the
// upstream realtime API and is dialed as given; a non-empty deploymentName
// is sent as an "OpenAI-Beta: realtime=<deploymentName>" header and is not
// added to the URL.
func NewManager(endpoint, apiKey, deploymentName string, connectTimeout time.Duration) *Manager {
	return &Manager{
		endpoint:       endpoint,
		apiKey:         apiKey,
		deploymentName: deploymentName,
		connectTimeout: connectTimeout,
	}
}

// Open dials the upstream endpoint and immediately sends the session.update
// message built from active, per spec.md §4.4. The API credential travels
// as an Authorization header, never in the URL. The returned connection is
// ready for the relay's up/down pumps.
func (m *Manager) Open(ctx context.Context, active persona.Persona) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, m.connectTimeout)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+m.apiKey)
	if m.deploymentName != "" {
		header.Set("OpenAI-Beta", "realtime="+m.deploymentName)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, m.endpoint, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, errkind.Newf(errkind.UpstreamConnectFailed, "dialing upstream realtime endpoint (http status %d): %w", status, err)
	}

	update := buildSessionUpdate(active)
	if err := conn.WriteJSON(update); err != nil {
		conn.Close()
		return nil, errkind.Newf(errkind.UpstreamConnectFailed, "sending initial session.update: %w", err)
	}

	return conn, nil
}

func buildSessionUpdate(active persona.Persona) protocol.SessionUpdate {
	tools := make([]protocol.ToolDef, 0, len(active.Tools))
	for _, t := range active.Tools {
		tools = append(tools, protocol.ToolDef{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toolParametersSchema(t),
		})
	}

	return protocol.SessionUpdate{
		Type: protocol.EvtSessionUpdate,
		Session: protocol.SessionUpdateBody{
			Modalities:        []string{"text", "audio"},
			Voice:             active.VoiceID,
			Instructions:      active.Instructions,
			Tools:             tools,
			InputAudioFormat:  "pcm16",
			OutputAudioFormat: "pcm16",
			TurnDetection: protocol.TurnDetect{
				Type:              "server_vad",
				Threshold:         active.VAD.Threshold,
				PrefixPaddingMs:   active.VAD.PrefixPaddingMs,
				SilenceDurationMs: active.VAD.SilenceDurationMs,
				CreateResponse:    active.VAD.CreateResponse,
			},
		},
	}
}

// toolParametersSchema renders a ToolSchema's arguments into a JSON Schema
// object, the shape the upstream realtime API expects for a function
// tool's "parameters" field.
func toolParametersSchema(t persona.ToolSchema) json.RawMessage {
	properties := make(map[string]map[string]string, len(t.Arguments))
	var required []string
	for name, spec := range t.Arguments {
		properties[name] = map[string]string{"type": jsonSchemaType(spec.Type)}
		if spec.Required {
			required = append(required, name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		// properties/required above are always JSON-marshalable primitives.
		panic(fmt.Sprintf("upstream: marshaling tool schema for %q: %v", t.Name, err))
	}
	return raw
}

func jsonSchemaType(argType string) string {
	switch argType {
	case "int", "integer":
		return "integer"
	case "number":
		return "number"
	case "bool", "boolean":
		return "boolean"
	default:
		return "string"
	}
}
