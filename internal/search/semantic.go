package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"
)

const collectionName = "codeatlas"

// SemanticSearcher ranks documents by vector similarity using chromem-go.
// Reindexing swaps the collection atomically, so concurrent queries never
// see a half-built index.
type SemanticSearcher struct {
	provider   EmbeddingProvider
	db         *chromem.DB
	mu         sync.RWMutex
	collection *chromem.Collection
	generation int
}

// NewSemanticSearcher creates an empty semantic index.
func NewSemanticSearcher(provider EmbeddingProvider) (*SemanticSearcher, error) {
	if provider == nil {
		return nil, fmt.Errorf("embedding provider is required")
	}
	return &SemanticSearcher{
		provider: provider,
		db:       chromem.NewDB(),
	}, nil
}

// Index replaces the collection with the given documents.
func (s *SemanticSearcher) Index(ctx context.Context, docs []Document) error {
	s.mu.Lock()
	s.generation++
	name := fmt.Sprintf("%s-%d", collectionName, s.generation)
	s.mu.Unlock()

	collection, err := s.db.CreateCollection(name, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if len(docs) > 0 {
		texts := make([]string, len(docs))
		for i, d := range docs {
			texts[i] = d.Text
		}
		embeddings, err := s.provider.Embed(ctx, texts, "passage")
		if err != nil {
			return fmt.Errorf("failed to embed documents: %w", err)
		}
		if len(embeddings) != len(docs) {
			return fmt.Errorf("embedding count mismatch: got %d for %d documents", len(embeddings), len(docs))
		}

		for i, d := range docs {
			doc := chromem.Document{
				ID:        d.ID,
				Content:   d.Text,
				Embedding: embeddings[i],
				Metadata: map[string]string{
					"file_path": d.FilePath,
					"kind":      d.Kind,
				},
			}
			if err := collection.AddDocument(ctx, doc); err != nil {
				return fmt.Errorf("failed to add document %s: %w", d.ID, err)
			}
		}
	}

	s.mu.Lock()
	s.collection = collection
	s.mu.Unlock()
	return nil
}

// Query returns up to limit hits ranked by similarity.
func (s *SemanticSearcher) Query(ctx context.Context, text string, limit int) ([]Hit, error) {
	s.mu.RLock()
	collection := s.collection
	s.mu.RUnlock()

	if collection == nil || collection.Count() == 0 || limit <= 0 {
		return nil, nil
	}
	if limit > collection.Count() {
		limit = collection.Count()
	}

	embeddings, err := s.provider.Embed(ctx, []string{text}, "query")
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	docs, err := collection.QueryEmbedding(ctx, embeddings[0], limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	hits := make([]Hit, 0, len(docs))
	for _, doc := range docs {
		hits = append(hits, Hit{
			ID:       doc.ID,
			Score:    float64(doc.Similarity),
			Text:     doc.Content,
			FilePath: doc.Metadata["file_path"],
			Kind:     doc.Metadata["kind"],
		})
	}
	return hits, nil
}
