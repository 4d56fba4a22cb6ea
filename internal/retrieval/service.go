package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hari87gxs/voice-agent-gateway/internal/errkind"
)

// noResultsMessage is returned, verbatim, when neither vector search nor
// keyword fallback turns up a usable match. Adapted from
// original_source/CXBuddyPro/vector_store.py's canned apology.
const noResultsMessage = "I couldn't find anything about that in the knowledge base. Please check help.gxs.com.sg directly, or I can connect you with a live agent."

// defaultTopK is how many chunks Query returns when the caller doesn't
// need a different number, matching spec.md §4.2's tool default.
const defaultTopK = 3

// formatResult renders one retrieved passage the same way regardless of
// whether it came from vector search or keyword fallback, so callers
// (tool handlers) can't tell which path served a query.
func formatResult(title, body string) string {
	if title == "" {
		return body
	}
	return fmt.Sprintf("[%s]\n%s", title, body)
}

// Service implements the retrieval-augmented knowledge base described in
// spec.md §4.2: chunk a flat corpus file, embed the chunks, and answer
// queries by nearest-neighbor search with a keyword-matching fallback when
// embeddings are unavailable or return nothing useful.
type Service struct {
	store    *Store
	embedder Embedder
	log      zerolog.Logger

	corpusPath string
	chunkSize  int
	overlap    int
	batchSize  int

	mu       sync.RWMutex
	sections []section // retained for keyword fallback
}

// NewService constructs a retrieval Service. embedder may be nil, in which
// case Index skips embedding and Query always uses the keyword fallback —
// this keeps the gateway usable when EMBEDDING_API_KEY is unset, per
// spec.md §6's env var being optional.
func NewService(store *Store, embedder Embedder, corpusPath string, log zerolog.Logger) *Service {
	return &Service{
		store:      store,
		embedder:   embedder,
		log:        log.With().Str("component", "retrieval").Logger(),
		corpusPath: corpusPath,
		chunkSize:  defaultChunkSize,
		overlap:    defaultOverlap,
		batchSize:  50,
	}
}

// Index (re)builds the vector store from the corpus file. If the store
// already holds chunks and forceReindex is false, Index only loads the
// corpus's sections for keyword fallback and returns without re-embedding,
// matching spec.md §4.2's "skip re-embedding on unchanged corpus" note.
func (s *Service) Index(ctx context.Context, forceReindex bool) error {
	raw, err := os.ReadFile(s.corpusPath)
	if err != nil {
		return errkind.Newf(errkind.RetrievalUnavailable, "reading corpus %s: %w", s.corpusPath, err)
	}

	sections := splitSections(string(raw))

	s.mu.Lock()
	s.sections = sections
	s.mu.Unlock()

	count, err := s.store.Count()
	if err != nil {
		return errkind.Newf(errkind.RetrievalUnavailable, "counting existing chunks: %w", err)
	}
	if count > 0 && !forceReindex {
		s.log.Debug().Int("existing_chunks", count).Msg("corpus already indexed, skipping re-embed")
		return nil
	}

	if s.embedder == nil {
		s.log.Warn().Msg("no embedder configured, indexing skipped: queries will use keyword fallback only")
		return nil
	}

	var chunks []Chunk
	for secIdx, sec := range sections {
		pieces := chunkText(sec.Body, s.chunkSize, s.overlap)
		for chunkIdx, piece := range pieces {
			chunks = append(chunks, Chunk{
				ID:   chunkID(sec.SourceURL, secIdx, chunkIdx),
				Text: piece,
				Metadata: ChunkMetadata{
					SourceURL:      sec.SourceURL,
					Title:          sec.Title,
					SectionOrdinal: secIdx,
					ChunkOrdinal:   chunkIdx,
				},
			})
		}
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := embedBatched(ctx, s.embedder, texts, s.batchSize)
	if err != nil {
		return err
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	if err := s.store.Clear(); err != nil {
		return errkind.Newf(errkind.RetrievalUnavailable, "clearing prior index: %w", err)
	}
	if err := s.store.SaveChunks(chunks); err != nil {
		return errkind.Newf(errkind.RetrievalUnavailable, "saving chunks: %w", err)
	}

	s.log.Info().Int("sections", len(sections)).Int("chunks", len(chunks)).Msg("corpus indexed")
	return nil
}

// Query answers a natural-language query with up to k formatted passages,
// separated by "---" lines. It tries vector search first; if the embedder
// is unavailable, errors, or no chunk clears the similarity floor, it
// falls back to keyword scoring over whole sections. Both paths return
// noResultsMessage on a genuine miss, per spec.md §4.2's "always answer,
// never say 'I don't know' verbatim" requirement.
func (s *Service) Query(ctx context.Context, query string, k int) (string, error) {
	if k <= 0 {
		k = defaultTopK
	}

	s.mu.RLock()
	sections := s.sections
	s.mu.RUnlock()

	if s.embedder != nil {
		result, ok, err := s.vectorQuery(ctx, query, k)
		if err != nil {
			s.log.Warn().Err(err).Msg("vector query failed, falling back to keyword search")
		} else if ok {
			return result, nil
		}
	}

	return keywordFallback(sections, query, k), nil
}

const minSimilarity = 0.15

func (s *Service) vectorQuery(ctx context.Context, query string, k int) (string, bool, error) {
	chunks, err := s.store.All()
	if err != nil {
		return "", false, fmt.Errorf("loading indexed chunks: %w", err)
	}
	if len(chunks) == 0 {
		return "", false, nil
	}

	queryEmb, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", false, err
	}

	type scored struct {
		chunk Chunk
		score float64
	}
	scoredChunks := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		sim := cosineSimilarity(queryEmb[0], c.Embedding)
		if sim >= minSimilarity {
			scoredChunks = append(scoredChunks, scored{c, sim})
		}
	}
	if len(scoredChunks) == 0 {
		return "", false, nil
	}

	sort.Slice(scoredChunks, func(i, j int) bool { return scoredChunks[i].score > scoredChunks[j].score })
	if len(scoredChunks) > k {
		scoredChunks = scoredChunks[:k]
	}

	seen := make(map[string]bool, len(scoredChunks))
	results := make([]string, 0, len(scoredChunks))
	for _, sc := range scoredChunks {
		if seen[sc.chunk.Text] {
			continue
		}
		seen[sc.chunk.Text] = true
		results = append(results, formatResult(sc.chunk.Metadata.Title, sc.chunk.Text))
	}

	joined := ""
	for i, r := range results {
		if i > 0 {
			joined += "\n---\n"
		}
		joined += r
	}
	return joined, true, nil
}

// chunkID derives a stable id from source+ordinals so re-indexing an
// unchanged corpus produces identical primary keys.
func chunkID(sourceURL string, sectionIdx, chunkIdx int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s#%d#%d", sourceURL, sectionIdx, chunkIdx)))
	return hex.EncodeToString(h[:])[:16]
}
