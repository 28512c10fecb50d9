// Package retrieve implements the mode-specific retrieval strategies
// behind question answering: diagnostic (error investigation), exploratory
// (flow tracing), analytical (structure assessment), and conceptual
// (hybrid search fallback). Every retriever returns an empty list, not an
// error, when nothing can be extracted from the query.
package retrieve

import "context"

// Result is one evidence chunk produced by a retriever.
type Result struct {
	Content   string
	Source    string
	FilePath  string
	StartLine int
	EndLine   int
	Relevance string
}

// Retriever is one retrieval strategy. The budget caps how many results
// come back; implementations degrade to partial results when an external
// capability fails rather than returning an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string, budget int) ([]Result, error)
}

// capBudget truncates results to the budget; budget <= 0 means unlimited.
func capBudget(results []Result, budget int) []Result {
	if budget > 0 && len(results) > budget {
		return results[:budget]
	}
	return results
}
