// Command reindex forces a full re-embedding of the knowledge base corpus
// without going through the gateway process, for use in a deploy pipeline
// or after editing the corpus file by hand.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hari87gxs/voice-agent-gateway/internal/config"
	"github.com/hari87gxs/voice-agent-gateway/internal/retrieval"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg := config.Load()
	if cfg.EmbeddingAPIKey == "" {
		log.Fatal().Msg("EMBEDDING_API_KEY is required to reindex")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := retrieval.OpenStore(cfg.VectorStoreDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open vector store")
	}
	defer store.Close()

	embedder, err := retrieval.NewGenAIEmbedder(ctx, cfg.EmbeddingEndpoint, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build embedding client")
	}

	svc := retrieval.NewService(store, embedder, cfg.CorpusPath, log)

	log.Info().Str("corpus", cfg.CorpusPath).Msg("reindexing knowledge base")
	start := time.Now()
	if err := svc.Index(ctx, true); err != nil {
		log.Fatal().Err(err).Msg("reindex failed")
	}

	count, err := store.Count()
	if err != nil {
		log.Fatal().Err(err).Msg("reindex succeeded but could not read back chunk count")
	}
	log.Info().Int("chunks", count).Dur("duration", time.Since(start)).Msg("reindex complete")
}
