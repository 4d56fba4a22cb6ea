package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder embeds text as a bag-of-keyword-counts vector so that cosine
// similarity behaves predictably in tests without a network call.
type fakeEmbedder struct {
	keywords []string
	calls    int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		vec := make([]float32, len(f.keywords))
		for j, kw := range f.keywords {
			vec[j] = float32(strings.Count(lower, kw))
		}
		out[i] = vec
	}
	return out, nil
}

func newTestService(t *testing.T, embedder Embedder) *Service {
	t.Helper()
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewService(store, embedder, "testdata/corpus.txt", zerolog.Nop())
}

func TestServiceIndexAndVectorQuery(t *testing.T) {
	embedder := &fakeEmbedder{keywords: []string{"freeze", "interest", "singpass"}}
	svc := newTestService(t, embedder)

	require.NoError(t, svc.Index(context.Background(), true))

	result, err := svc.Query(context.Background(), "how do I freeze my card", 2)
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(result), "freeze")
}

func TestServiceIndexSkipsReembedWhenAlreadyIndexed(t *testing.T) {
	embedder := &fakeEmbedder{keywords: []string{"freeze"}}
	svc := newTestService(t, embedder)

	require.NoError(t, svc.Index(context.Background(), true))
	firstCalls := embedder.calls

	require.NoError(t, svc.Index(context.Background(), false))
	assert.Equal(t, firstCalls, embedder.calls, "second non-forced index should not re-embed")
}

func TestServiceQueryFallsBackToKeywordsWithoutEmbedder(t *testing.T) {
	svc := newTestService(t, nil)
	require.NoError(t, svc.Index(context.Background(), true))

	result, err := svc.Query(context.Background(), "lost or stolen card replacement", 2)
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(result), "replacement")
}

func TestServiceQueryNoMatchReturnsNoResultsMessage(t *testing.T) {
	svc := newTestService(t, nil)
	require.NoError(t, svc.Index(context.Background(), true))

	result, err := svc.Query(context.Background(), "xyzzy plugh nonsense", 2)
	require.NoError(t, err)
	assert.Equal(t, noResultsMessage, result)
}

func TestFormatResult(t *testing.T) {
	assert.Equal(t, "[Title]\nbody", formatResult("Title", "body"))
	assert.Equal(t, "body", formatResult("", "body"))
}
