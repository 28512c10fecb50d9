package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocs() []Document {
	return []Document{
		{ID: "auth/handler.py::login", Text: "login authenticates a user with verify and session tokens", FilePath: "auth/handler.py", Kind: "function"},
		{ID: "auth/utils.py::verify", Text: "verify checks a token signature", FilePath: "auth/utils.py", Kind: "function"},
		{ID: "billing/invoice.py::total", Text: "total sums invoice line amounts", FilePath: "billing/invoice.py", Kind: "function"},
	}
}

func newHybrid(t *testing.T) *HybridSearcher {
	t.Helper()
	sem, err := NewSemanticSearcher(&HashEmbeddingProvider{Dimensions: 64})
	require.NoError(t, err)
	lex, err := NewLexicalSearcher()
	require.NoError(t, err)
	t.Cleanup(func() { lex.Close() })

	h := NewHybridSearcher(sem, lex)
	require.NoError(t, h.Index(context.Background(), testDocs()))
	return h
}

func TestLexicalSearcher_Query(t *testing.T) {
	lex, err := NewLexicalSearcher()
	require.NoError(t, err)
	defer lex.Close()
	require.NoError(t, lex.Index(context.Background(), testDocs()))

	hits, err := lex.Query(context.Background(), "invoice amounts", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "billing/invoice.py::total", hits[0].ID)
	assert.Equal(t, "billing/invoice.py", hits[0].FilePath)
}

func TestSemanticSearcher_Query(t *testing.T) {
	sem, err := NewSemanticSearcher(&HashEmbeddingProvider{Dimensions: 64})
	require.NoError(t, err)
	require.NoError(t, sem.Index(context.Background(), testDocs()))

	hits, err := sem.Query(context.Background(), "verify checks a token signature", 2)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "auth/utils.py::verify", hits[0].ID)
}

func TestSemanticSearcher_EmptyIndex(t *testing.T) {
	sem, err := NewSemanticSearcher(&HashEmbeddingProvider{})
	require.NoError(t, err)
	hits, err := sem.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestHybridSearcher_FusesBothLegs(t *testing.T) {
	h := newHybrid(t)
	hits := h.Search(context.Background(), "login verify user tokens", 3)
	require.NotEmpty(t, hits)

	// The login doc should rank first: it matches lexically and shares the
	// most tokens semantically.
	assert.Equal(t, "auth/handler.py::login", hits[0].ID)
	assert.NotEmpty(t, hits[0].Text)
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i].Score, hits[i-1].Score)
	}
}

func TestHybridSearcher_LimitsResults(t *testing.T) {
	h := newHybrid(t)
	hits := h.Search(context.Background(), "function", 1)
	assert.LessOrEqual(t, len(hits), 1)
}
