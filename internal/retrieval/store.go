package retrieval

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Chunk is one indexed piece of the knowledge corpus, per spec.md §3.
type Chunk struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  ChunkMetadata
}

// ChunkMetadata identifies where a chunk came from within the corpus.
type ChunkMetadata struct {
	SourceURL      string
	Title          string
	SectionOrdinal int
	ChunkOrdinal   int
}

// Store persists indexed chunks. It models spec.md §9's "embedding-store
// singleton (chroma_db directory)" as an owned handle injected into the
// retrieval service, backed by a SQLite database file inside that
// directory rather than a process-global.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the SQLite-backed vector store at
// dir/chunks.db, matching the teacher's migrate-on-open pattern
// (orchestrator/store/sqlite.go).
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating vector store dir: %w", err)
	}

	dsn := filepath.Join(dir, "chunks.db")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating vector store: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			embedding TEXT NOT NULL,
			source_url TEXT,
			title TEXT,
			section_ordinal INTEGER,
			chunk_ordinal INTEGER
		)`)
	return err
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Count returns the number of indexed chunks.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

// Clear deletes all indexed chunks, used by force-reindex.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM chunks`)
	return err
}

// SaveChunks upserts a batch of chunks. Re-indexing the same corpus
// produces the same chunk ids (deterministic ids derived from source URL
// and section/chunk ordinals, see chunkID in service.go), so this is
// idempotent.
func (s *Store) SaveChunks(chunks []Chunk) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO chunks (id, text, embedding, source_url, title, section_ordinal, chunk_ordinal)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text=excluded.text, embedding=excluded.embedding,
			source_url=excluded.source_url, title=excluded.title,
			section_ordinal=excluded.section_ordinal, chunk_ordinal=excluded.chunk_ordinal`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range chunks {
		embJSON, err := json.Marshal(c.Embedding)
		if err != nil {
			return fmt.Errorf("marshaling embedding for chunk %s: %w", c.ID, err)
		}
		if _, err := stmt.Exec(c.ID, c.Text, string(embJSON), c.Metadata.SourceURL, c.Metadata.Title, c.Metadata.SectionOrdinal, c.Metadata.ChunkOrdinal); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// All loads every indexed chunk. The corpus this service targets (a
// scraped help-center site) is small enough that a full scan per query is
// acceptable.
func (s *Store) All() ([]Chunk, error) {
	rows, err := s.db.Query(`SELECT id, text, embedding, source_url, title, section_ordinal, chunk_ordinal FROM chunks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		var c Chunk
		var embJSON string
		if err := rows.Scan(&c.ID, &c.Text, &embJSON, &c.Metadata.SourceURL, &c.Metadata.Title, &c.Metadata.SectionOrdinal, &c.Metadata.ChunkOrdinal); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(embJSON), &c.Embedding); err != nil {
			return nil, fmt.Errorf("decoding embedding for chunk %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// cosineSimilarity computes cosine similarity between two equal-length
// vectors. Returns -1 (minimal similarity) if either is a zero vector or
// they differ in length.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return -1
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
