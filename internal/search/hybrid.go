package search

import (
	"context"
	"log"

	"github.com/codeatlas/codeatlas/internal/fusion"
)

// HybridSearcher fuses semantic and lexical rankings with RRF. Either leg
// failing degrades to the other leg's results rather than failing the
// search; both failing yields an empty result.
type HybridSearcher struct {
	semantic *SemanticSearcher
	lexical  *LexicalSearcher
}

// NewHybridSearcher combines the two searchers.
func NewHybridSearcher(semantic *SemanticSearcher, lexical *LexicalSearcher) *HybridSearcher {
	return &HybridSearcher{semantic: semantic, lexical: lexical}
}

// Index indexes documents into both legs.
func (s *HybridSearcher) Index(ctx context.Context, docs []Document) error {
	if err := s.semantic.Index(ctx, docs); err != nil {
		return err
	}
	return s.lexical.Index(ctx, docs)
}

// Search returns up to limit fused hits.
func (s *HybridSearcher) Search(ctx context.Context, query string, limit int) []Hit {
	semHits, err := s.semantic.Query(ctx, query, limit)
	if err != nil {
		log.Printf("Warning: semantic search failed, using lexical only: %v", err)
	}
	lexHits, err := s.lexical.Query(ctx, query, limit)
	if err != nil {
		log.Printf("Warning: lexical search failed, using semantic only: %v", err)
	}

	fused := fusion.Fuse(toDocuments(semHits), toDocuments(lexHits), fusion.Options{})
	if limit > 0 && len(fused) > limit {
		fused = fused[:limit]
	}

	hits := make([]Hit, 0, len(fused))
	for _, f := range fused {
		hit := Hit{ID: f.ID, Score: f.Score}
		if v, ok := f.Fields["text"].(string); ok {
			hit.Text = v
		}
		if v, ok := f.Fields["file_path"].(string); ok {
			hit.FilePath = v
		}
		if v, ok := f.Fields["kind"].(string); ok {
			hit.Kind = v
		}
		hits = append(hits, hit)
	}
	return hits
}

func toDocuments(hits []Hit) []fusion.Document {
	docs := make([]fusion.Document, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, fusion.Document{
			ID: h.ID,
			Fields: map[string]any{
				"text":      h.Text,
				"file_path": h.FilePath,
				"kind":      h.Kind,
			},
		})
	}
	return docs
}
