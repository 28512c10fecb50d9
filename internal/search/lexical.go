package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// LexicalSearcher ranks documents by keyword match using an in-memory
// bleve index.
type LexicalSearcher struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewLexicalSearcher creates an empty lexical index.
func NewLexicalSearcher() (*LexicalSearcher, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return &LexicalSearcher{index: index}, nil
}

func buildMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	textMapping := bleve.NewTextFieldMapping()
	textMapping.Analyzer = "standard"
	textMapping.Store = true
	textMapping.IncludeTermVectors = true

	pathMapping := bleve.NewTextFieldMapping()
	pathMapping.Analyzer = "standard"
	pathMapping.Store = true

	kindMapping := bleve.NewTextFieldMapping()
	kindMapping.Analyzer = "keyword"
	kindMapping.Store = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("text", textMapping)
	docMapping.AddFieldMappingsAt("file_path", pathMapping)
	docMapping.AddFieldMappingsAt("kind", kindMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Index adds or replaces documents in the index.
func (s *LexicalSearcher) Index(ctx context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const batchSize = 1000
	batch := s.index.NewBatch()
	for i, d := range docs {
		if i%batchSize == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		err := batch.Index(d.ID, map[string]any{
			"text":      d.Text,
			"file_path": d.FilePath,
			"kind":      d.Kind,
		})
		if err != nil {
			return fmt.Errorf("failed to batch document %s: %w", d.ID, err)
		}
		if batch.Size() >= batchSize {
			if err := s.index.Batch(batch); err != nil {
				return fmt.Errorf("failed to execute batch: %w", err)
			}
			batch = s.index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to execute final batch: %w", err)
		}
	}
	return nil
}

// Query returns up to limit hits ranked by BM25-style relevance.
func (s *LexicalSearcher) Query(ctx context.Context, text string, limit int) ([]Hit, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	q := bleve.NewMatchQuery(text)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"text", "file_path", "kind"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if v, ok := h.Fields["text"].(string); ok {
			hit.Text = v
		}
		if v, ok := h.Fields["file_path"].(string); ok {
			hit.FilePath = v
		}
		if v, ok := h.Fields["kind"].(string); ok {
			hit.Kind = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close releases index resources.
func (s *LexicalSearcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}
