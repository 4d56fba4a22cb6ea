package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSectionsExtractsHeaders(t *testing.T) {
	corpus := "SOURCE: https://example.com/a\nTITLE: A Title\n\n" +
		strings.Repeat("body text ", 10) +
		"===END-SECTION===\nshort\n===END-SECTION===\n" +
		"SOURCE: https://example.com/b\nTITLE: B Title\n\n" +
		strings.Repeat("more body ", 10)

	sections := splitSections(corpus)
	require.Len(t, sections, 2)
	assert.Equal(t, "https://example.com/a", sections[0].SourceURL)
	assert.Equal(t, "A Title", sections[0].Title)
	assert.NotContains(t, sections[0].Body, "SOURCE:")
	assert.Equal(t, "https://example.com/b", sections[1].SourceURL)
}

func TestSplitSectionsDropsShortSections(t *testing.T) {
	sections := splitSections("too short===END-SECTION===also short")
	assert.Empty(t, sections)
}

func TestChunkTextShortTextReturnsSingleChunk(t *testing.T) {
	chunks := chunkText("a short piece of text.", 500, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short piece of text.", chunks[0])
}

func TestChunkTextEmptyReturnsNoChunks(t *testing.T) {
	assert.Empty(t, chunkText("", 500, 100))
}

func TestChunkTextOverlapsAndPrefersSentenceBreak(t *testing.T) {
	sentence := "This is a sentence that repeats. "
	text := strings.Repeat(sentence, 30) // well over chunkSize
	chunks := chunkText(text, 200, 50)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 200)
	}
	// every chunk except the last should end at a sentence boundary
	for _, c := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(c, "."), "chunk %q should end on a sentence boundary", c)
	}
}

func TestChunkTextHardCutWithoutDelimiters(t *testing.T) {
	text := strings.Repeat("x", 1000)
	chunks := chunkText(text, 300, 50)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 300)
	}
}

func TestFindBreakFallsBackToHardCut(t *testing.T) {
	text := strings.Repeat("x", 500)
	assert.Equal(t, 300, findBreak(text, 0, 300))
}
