// Command gateway is the realtime voice-agent gateway's process
// entrypoint: it loads configuration and personas, wires the retrieval,
// backend, policy, and upstream components into a tool executor, and
// serves the browser-facing WebSocket and internal HTTP endpoints until
// asked to shut down.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/hari87gxs/voice-agent-gateway/internal/backend"
	"github.com/hari87gxs/voice-agent-gateway/internal/config"
	"github.com/hari87gxs/voice-agent-gateway/internal/httpapi"
	"github.com/hari87gxs/voice-agent-gateway/internal/persona"
	"github.com/hari87gxs/voice-agent-gateway/internal/policy"
	"github.com/hari87gxs/voice-agent-gateway/internal/retrieval"
	"github.com/hari87gxs/voice-agent-gateway/internal/tools"
	"github.com/hari87gxs/voice-agent-gateway/internal/upstream"
	"github.com/hari87gxs/voice-agent-gateway/internal/ws"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	personas, err := persona.Load(cfg.PersonaConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load persona configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	retrievalSvc, err := buildRetrievalService(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build retrieval service")
	}
	if err := retrievalSvc.Index(ctx, false); err != nil {
		log.Error().Err(err).Msg("initial knowledge base indexing failed; continuing with the keyword fallback")
	}

	backendClient := backend.NewClient(cfg.BackendAPIBase, cfg.BackendCallTimeout)

	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to compile authorization policy")
	}

	registry := tools.NewRegistry()
	tools.RegisterDefaults(registry, retrievalSvc, backendClient)
	executor := tools.NewExecutor(registry, policyEngine)

	upstreamMgr := upstream.NewManager(cfg.UpstreamRealtimeEndpoint, cfg.UpstreamAPIKey, cfg.UpstreamDeploymentName, cfg.UpstreamConnectTimeout)

	wsServer := ws.NewServer(personas, upstreamMgr, executor, cfg.CORSAllowedOrigins, log)

	wsEcho := echo.New()
	wsEcho.HideBanner = true
	wsEcho.HidePort = true
	wsEcho.Use(middleware.Recover())
	wsEcho.GET("/ws", wsServer.HandleWebSocket)

	httpServer := httpapi.NewServer(wsServer, retrievalSvc, log)

	wsAddr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpAddr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port+1)

	go func() {
		if err := wsEcho.Start(wsAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("websocket server failed")
		}
	}()
	go func() {
		if err := httpServer.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("internal http server failed")
		}
	}()

	log.Info().Str("ws_addr", wsAddr).Str("http_addr", httpAddr).Msg("gateway started")

	<-ctx.Done()
	log.Info().Msg("shutting down gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := wsEcho.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("websocket server did not shut down cleanly")
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("internal http server did not shut down cleanly")
	}

	log.Info().Msg("gateway stopped")
}

// buildRetrievalService wires the retrieval store and embedder together,
// per spec.md §4.2 and §6's USE_VECTOR_STORE toggle. When the vector
// store is disabled, or the embedding client fails to build, the
// returned service carries a nil embedder and answers queries from the
// keyword fallback only.
func buildRetrievalService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*retrieval.Service, error) {
	store, err := retrieval.OpenStore(cfg.VectorStoreDir)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	var embedder retrieval.Embedder
	if cfg.UseVectorStore {
		embedder, err = retrieval.NewGenAIEmbedder(ctx, cfg.EmbeddingEndpoint, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
		if err != nil {
			log.Error().Err(err).Msg("failed to build embedding client; falling back to keyword search only")
			embedder = nil
		}
	}

	return retrieval.NewService(store, embedder, cfg.CorpusPath, log), nil
}
