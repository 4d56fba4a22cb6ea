// Package httpapi is the gateway's internal HTTP surface: a health check
// for the process supervisor and an admin trigger to force a knowledge
// base reindex without a redeploy.
package httpapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/hari87gxs/voice-agent-gateway/internal/retrieval"
)

// SessionCounter reports how many browser sessions are currently being
// relayed. internal/ws.Server satisfies this.
type SessionCounter interface {
	ActiveSessions() int64
}

// Server is the gateway's internal HTTP server.
type Server struct {
	echo *echo.Echo
}

// NewServer builds the internal HTTP server. retrievalSvc may be nil, in
// which case /admin/reindex answers 503; sessions must be non-nil, since
// /healthz calls it on every request.
func NewServer(sessions SessionCounter, retrievalSvc *retrieval.Service, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{echo: e}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":          "ok",
			"active_sessions": sessions.ActiveSessions(),
		})
	})

	e.POST("/admin/reindex", func(c echo.Context) error {
		if retrievalSvc == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "retrieval service not configured"})
		}
		if err := retrievalSvc.Index(c.Request().Context(), true); err != nil {
			log.Error().Err(err).Msg("forced reindex failed")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "reindexed"})
	})

	return s
}

// Start starts the HTTP server, blocking until it stops.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
