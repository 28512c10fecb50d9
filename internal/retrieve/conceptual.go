package retrieve

import (
	"context"

	"github.com/codeatlas/codeatlas/internal/search"
)

const sourceConceptual = "hybrid"

// ConceptualRetriever is the default strategy: plain hybrid search over
// indexed code summaries, with no graph walking.
type ConceptualRetriever struct {
	searcher *search.HybridSearcher
}

// NewConceptualRetriever wraps a hybrid searcher.
func NewConceptualRetriever(searcher *search.HybridSearcher) *ConceptualRetriever {
	return &ConceptualRetriever{searcher: searcher}
}

func (r *ConceptualRetriever) Retrieve(ctx context.Context, query string, budget int) ([]Result, error) {
	limit := budget
	if limit <= 0 {
		limit = 10
	}

	hits := r.searcher.Search(ctx, query, limit)
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{
			Content:   h.Text,
			Source:    sourceConceptual,
			FilePath:  h.FilePath,
			Relevance: "hybrid search match for the question",
		})
	}
	return results, nil
}
