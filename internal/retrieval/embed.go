package retrieval

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/hari87gxs/voice-agent-gateway/internal/errkind"
)

// Embedder turns text into dense embedding vectors. Implementations must be
// safe for concurrent use: the retrieval service calls it from indexing
// (batched) and from concurrent query-time tool calls.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// genaiEmbedder embeds text with a Gemini embedding model via
// google.golang.org/genai, matching the credentials shape spec.md §6
// documents for EMBEDDING_ENDPOINT/EMBEDDING_API_KEY/EMBEDDING_MODEL.
type genaiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGenAIEmbedder constructs an Embedder backed by the Gemini embeddings
// API. A non-empty endpoint overrides the genai client's base URL; an
// empty one leaves the client on its default Gemini API endpoint.
func NewGenAIEmbedder(ctx context.Context, endpoint, apiKey, model string) (Embedder, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if endpoint != "" {
		clientCfg.HTTPOptions.BaseURL = endpoint
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, errkind.Newf(errkind.EmbeddingFailure, "creating embedding client: %w", err)
	}
	return &genaiEmbedder{client: client, model: model}, nil
}

func (e *genaiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, errkind.Newf(errkind.EmbeddingFailure, "embedding batch of %d: %w", len(texts), err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, errkind.Newf(errkind.EmbeddingFailure, "embedding service returned %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}

// embedBatched embeds texts in groups of at most batchSize, matching
// spec.md §4.2's "Batch-embed chunks in groups of <= 50."
func embedBatched(ctx context.Context, embedder Embedder, texts []string, batchSize int) ([][]float32, error) {
	all := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch [%d:%d]: %w", start, end, err)
		}
		all = append(all, batch...)
	}
	return all, nil
}
