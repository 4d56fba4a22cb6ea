// Package ws is the browser-facing half of the HTTP/WS transport: it
// upgrades one browser connection into one gateway session, decides which
// agent role that session opens as, dials the matching upstream realtime
// connection, and hands both connections to the relay for the lifetime of
// the session.
package ws

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hari87gxs/voice-agent-gateway/internal/persona"
	"github.com/hari87gxs/voice-agent-gateway/internal/protocol"
	"github.com/hari87gxs/voice-agent-gateway/internal/relay"
	"github.com/hari87gxs/voice-agent-gateway/internal/session"
	"github.com/hari87gxs/voice-agent-gateway/internal/tools"
	"github.com/hari87gxs/voice-agent-gateway/internal/upstream"
)

// Server handles the browser-facing WebSocket endpoint.
type Server struct {
	personas       persona.Set
	upstreamMgr    *upstream.Manager
	executor       *tools.Executor
	log            zerolog.Logger
	upgrader       websocket.Upgrader
	activeSessions atomic.Int64
}

// NewServer builds a Server. corsOrigins configures the WebSocket
// upgrader's origin check; a single "*" allows any origin.
func NewServer(personas persona.Set, upstreamMgr *upstream.Manager, executor *tools.Executor, corsOrigins []string, log zerolog.Logger) *Server {
	allowAll := len(corsOrigins) == 0
	allowed := make(map[string]bool, len(corsOrigins))
	for _, o := range corsOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return &Server{
		personas:    personas,
		upstreamMgr: upstreamMgr,
		executor:    executor,
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// HandleWebSocket upgrades the request, opens a session at the role
// selected by the optional jwt query parameter (spec.md §6: "Query
// parameter: jwt=<token> (optional). Presence selects Role B at open."),
// dials the matching upstream connection, and blocks pumping messages for
// the lifetime of the session.
func (s *Server) HandleWebSocket(c echo.Context) error {
	browserConn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return err
	}
	defer browserConn.Close()

	sessionID := uuid.New().String()
	log := s.log.With().Str("session_id", sessionID).Logger()

	rawToken := c.QueryParam("jwt")
	role := persona.RoleA
	identity := session.Identity{Name: "Guest"}
	authToken := ""
	if rawToken != "" {
		if id, ok := session.DecodeMockToken(rawToken); ok {
			role = persona.RoleB
			identity = id
			authToken = rawToken
		} else {
			log.Warn().Msg("jwt query parameter present but not decodable; opening as anonymous")
		}
	}

	active, ok := s.personas.Get(role)
	if !ok {
		log.Error().Str("role", string(role)).Msg("no persona configured for selected role")
		return c.NoContent(http.StatusInternalServerError)
	}

	sess := session.New(authToken, role, identity)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	upstreamConn, err := s.upstreamMgr.Open(ctx, active)
	if err != nil {
		log.Error().Err(err).Msg("failed to open upstream connection")
		errEvt := protocol.ErrorEvent{Type: protocol.EvtError}
		errEvt.Error.Type = "upstream_unavailable"
		errEvt.Error.Message = "could not reach the voice agent right now"
		browserConn.WriteJSON(errEvt)
		return nil
	}
	defer upstreamConn.Close()

	s.trackSessionStart()
	defer s.trackSessionEnd()

	start := time.Now()
	r := relay.New(s.executor, log)
	err = r.Run(ctx, browserConn, upstreamConn, active, sess)
	log.Info().Err(err).Dur("duration", time.Since(start)).Str("role", string(role)).Msg("session ended")
	return nil
}

func (s *Server) trackSessionStart() { s.activeSessions.Add(1) }
func (s *Server) trackSessionEnd()   { s.activeSessions.Add(-1) }

// ActiveSessions returns a best-effort count of sessions currently being
// relayed, for the health endpoint.
func (s *Server) ActiveSessions() int64 { return s.activeSessions.Load() }
