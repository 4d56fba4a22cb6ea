// Package relay implements the C5 full-duplex message shuttle between one
// browser connection and its dedicated upstream realtime connection: two
// pumps, tool-call interception, and out-of-band handoff signaling.
package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hari87gxs/voice-agent-gateway/internal/errkind"
	"github.com/hari87gxs/voice-agent-gateway/internal/persona"
	"github.com/hari87gxs/voice-agent-gateway/internal/protocol"
	"github.com/hari87gxs/voice-agent-gateway/internal/session"
	"github.com/hari87gxs/voice-agent-gateway/internal/tools"
)

// syncConn serializes writes to a *websocket.Conn. gorilla/websocket
// permits only one concurrent writer; a session's up-pump, down-pump, and
// delayed handoff sender can all want to write to either peer.
type syncConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *syncConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

func (c *syncConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Relay shuttles messages for one session between a browser connection and
// its upstream connection.
type Relay struct {
	executor *tools.Executor
	log      zerolog.Logger
}

// New builds a Relay that dispatches intercepted tool calls through
// executor.
func New(executor *tools.Executor, log zerolog.Logger) *Relay {
	return &Relay{executor: executor, log: log}
}

// Run pumps messages between browserConn and upstreamConn until either
// side closes or errors, honoring the concurrency invariant that the
// first pump to terminate causes the other to stop within a bounded time
// (spec.md §8: <= 500ms). active is the persona in effect when the
// session opened; sess is updated in place if a handoff tool fires.
func (r *Relay) Run(ctx context.Context, browserConn, upstreamConn *websocket.Conn, active persona.Persona, sess *session.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	browser := &syncConn{conn: browserConn}
	upstream := &syncConn{conn: upstreamConn}

	// Unblock whichever pump is parked in a Read call once ctx is
	// cancelled by the other pump terminating.
	go func() {
		<-ctx.Done()
		browserConn.Close()
		upstreamConn.Close()
	}()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		err := r.upPump(browserConn, upstream)
		cancel()
		errCh <- err
	}()
	go func() {
		defer wg.Done()
		err := r.downPump(ctx, upstreamConn, browser, upstream, active, sess)
		cancel()
		errCh <- err
	}()

	wg.Wait()
	close(errCh)

	var first error
	for err := range errCh {
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

// upPump forwards every browser message to upstream verbatim: no parsing,
// no buffering beyond the transport per spec.md §4.5.
func (r *Relay) upPump(browserConn *websocket.Conn, upstream *syncConn) error {
	for {
		msgType, data, err := browserConn.ReadMessage()
		if err != nil {
			return errkind.New(errkind.ClientDropped, err)
		}
		if err := upstream.WriteMessage(msgType, data); err != nil {
			return errkind.New(errkind.UpstreamDropped, err)
		}
	}
}

// downPump parses each upstream text event and acts per spec.md §4.5's
// event table; binary frames are forwarded untouched.
func (r *Relay) downPump(ctx context.Context, upstreamConn *websocket.Conn, browser, upstream *syncConn, active persona.Persona, sess *session.Session) error {
	for {
		msgType, data, err := upstreamConn.ReadMessage()
		if err != nil {
			return errkind.New(errkind.UpstreamDropped, err)
		}

		if msgType == websocket.BinaryMessage {
			if err := browser.WriteMessage(msgType, data); err != nil {
				return errkind.New(errkind.ClientDropped, err)
			}
			continue
		}

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			r.log.Warn().Err(err).Msg("dropping malformed upstream event")
			continue
		}

		switch env.Type {
		case protocol.EvtResponseFunctionCallArgsDone:
			var call protocol.FunctionCallArgumentsDone
			if err := json.Unmarshal(data, &call); err != nil {
				r.log.Warn().Err(err).Msg("dropping malformed function_call_arguments.done event")
				continue
			}
			go r.handleToolCall(ctx, upstream, browser, active, sess, call)

		case protocol.EvtError:
			var errEvt protocol.ErrorEvent
			if err := json.Unmarshal(data, &errEvt); err == nil {
				r.log.Error().Str("upstream_error_type", errEvt.Error.Type).Str("upstream_error_message", errEvt.Error.Message).Msg("upstream reported an error")
			}
			if err := browser.WriteMessage(msgType, data); err != nil {
				return errkind.New(errkind.ClientDropped, err)
			}

		default:
			if err := browser.WriteMessage(msgType, data); err != nil {
				return errkind.New(errkind.ClientDropped, err)
			}
		}
	}
}

// handoffNotifyDelay is the wait, per spec.md §4.5, before telling the
// browser to reconnect under a different role, used only if the active
// persona's HandoffDelay is zero; otherwise the persona's delay applies.
const handoffNotifyDelay = 1500 * time.Millisecond

// handleToolCall executes one intercepted tool call out of line from the
// down-pump loop so a slow backend call never blocks subsequent upstream
// events (audio deltas, in particular) from reaching the browser.
func (r *Relay) handleToolCall(ctx context.Context, upstream, browser *syncConn, active persona.Persona, sess *session.Session, call protocol.FunctionCallArgumentsDone) {
	result, err := r.executor.Execute(ctx, active, sess, call.Name, json.RawMessage(call.Arguments))
	if err != nil {
		r.log.Error().Err(err).Str("tool", call.Name).Msg("tool dispatch failed for an undeclared or unregistered tool")
		return
	}

	itemCreate, responseCreate := protocol.NewFunctionCallOutput(call.CallID, result.Text)
	if err := upstream.WriteJSON(itemCreate); err != nil {
		r.log.Warn().Err(err).Str("call_id", call.CallID).Msg("failed to send function_call_output upstream")
		return
	}
	if err := upstream.WriteJSON(responseCreate); err != nil {
		r.log.Warn().Err(err).Str("call_id", call.CallID).Msg("failed to send response.create upstream")
		return
	}

	if result.Handoff == nil {
		return
	}

	sess.SetRole(result.Handoff.TargetRole)
	delay := active.HandoffDelay()
	if delay == 0 {
		delay = handoffNotifyDelay
	}

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return
	}

	event := protocol.NewAgentHandoff(string(result.Handoff.TargetRole), "Transferring you now...")
	if err := browser.WriteJSON(event); err != nil {
		r.log.Warn().Err(err).Str("target_role", string(result.Handoff.TargetRole)).Msg("failed to send agent.handoff to browser")
	}
}
