// Package protocol defines the wire types exchanged on the two channels
// the gateway sits between: the browser<->gateway channel (spec.md §6,
// "Browser <-> gateway channel") and the gateway<->upstream realtime
// channel the gateway dials out as a client (spec.md §6, "Upstream
// realtime protocol").
package protocol

import (
	"encoding/base64"
	"encoding/json"
)

// Upstream event types the gateway treats non-opaquely, per spec.md §6.
const (
	EvtSessionCreated                  = "session.created"
	EvtSessionUpdated                  = "session.updated"
	EvtInputAudioBufferSpeechStarted   = "input_audio_buffer.speech_started"
	EvtInputAudioBufferSpeechStopped   = "input_audio_buffer.speech_stopped"
	EvtConversationItemCreated         = "conversation.item.created"
	EvtResponseAudioDelta              = "response.audio.delta"
	EvtResponseAudioTranscriptDelta    = "response.audio_transcript.delta"
	EvtResponseAudioTranscriptDone     = "response.audio_transcript.done"
	EvtResponseFunctionCallArgsDone    = "response.function_call_arguments.done"
	EvtResponseDone                    = "response.done"
	EvtError                           = "error"

	// Client -> gateway (up-pump), gateway -> upstream.
	EvtInputAudioBufferAppend = "input_audio_buffer.append"
	EvtSessionUpdate          = "session.update"
	EvtConversationItemCreate = "conversation.item.create"
	EvtResponseCreate         = "response.create"
)

// Envelope is used to sniff an inbound event's type before deciding
// whether the down-pump needs to intercept or parse it further.
type Envelope struct {
	Type string `json:"type"`
}

// FunctionCallArgumentsDone is the intercepted event described in spec.md
// §4.5: it is never forwarded to the browser.
type FunctionCallArgumentsDone struct {
	Type      string `json:"type"`
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ErrorEvent carries an upstream-reported error, forwarded and logged.
type ErrorEvent struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// InputAudioBufferAppend carries one base64-wrapped up-frame from the
// client to the gateway (and from the gateway to upstream verbatim), per
// spec.md §4.7 step 5.
type InputAudioBufferAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

// NewInputAudioBufferAppend wraps raw PCM16 bytes as a base64 up-frame
// event.
func NewInputAudioBufferAppend(pcm16 []byte) InputAudioBufferAppend {
	return InputAudioBufferAppend{
		Type:  EvtInputAudioBufferAppend,
		Audio: base64.StdEncoding.EncodeToString(pcm16),
	}
}

// ResponseAudioDelta carries one base64-wrapped down-frame from upstream,
// forwarded to the browser verbatim by the relay.
type ResponseAudioDelta struct {
	Type  string `json:"type"`
	Delta string `json:"delta"`
}

// DecodePCM16 base64-decodes a ResponseAudioDelta's payload back to raw
// PCM16 bytes.
func (d ResponseAudioDelta) DecodePCM16() ([]byte, error) {
	return base64.StdEncoding.DecodeString(d.Delta)
}

// SessionUpdate is the outbound configuration message the upstream session
// manager (C4) sends immediately after connecting.
type SessionUpdate struct {
	Type    string             `json:"type"`
	Session SessionUpdateBody  `json:"session"`
}

// SessionUpdateBody is the payload of a SessionUpdate.
type SessionUpdateBody struct {
	Modalities        []string    `json:"modalities"`
	Voice             string      `json:"voice"`
	Instructions      string      `json:"instructions"`
	Tools             []ToolDef   `json:"tools"`
	InputAudioFormat  string      `json:"input_audio_format"`
	OutputAudioFormat string      `json:"output_audio_format"`
	TurnDetection     TurnDetect  `json:"turn_detection"`
}

// ToolDef is the wire shape of a tool schema sent upstream.
type ToolDef struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// TurnDetect configures server-side VAD, per spec.md §4.4.
type TurnDetect struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
	CreateResponse    bool    `json:"create_response"`
}

// ConversationItemCreate carries a function_call_output back upstream,
// fulfilling a tool call.
type ConversationItemCreate struct {
	Type string                 `json:"type"`
	Item FunctionCallOutputItem `json:"item"`
}

// FunctionCallOutputItem is the item body of a ConversationItemCreate used
// to report a tool result.
type FunctionCallOutputItem struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

// ResponseCreate triggers response generation after a tool output has been
// inserted into the conversation.
type ResponseCreate struct {
	Type string `json:"type"`
}

// NewFunctionCallOutput builds the two upstream messages the down-pump must
// send, in order, after executing a tool call: the output item, then the
// response trigger.
func NewFunctionCallOutput(callID, output string) (ConversationItemCreate, ResponseCreate) {
	item := ConversationItemCreate{
		Type: EvtConversationItemCreate,
		Item: FunctionCallOutputItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	}
	return item, ResponseCreate{Type: EvtResponseCreate}
}
