// Package search provides hybrid retrieval over indexed code summaries: a
// chromem-go vector index for semantic similarity and a bleve index for
// exact keywords, fused into one ranking.
package search

import "context"

// Document is one searchable unit, typically a graph node's summary text.
type Document struct {
	ID       string
	Text     string
	FilePath string
	Kind     string
}

// Hit is one search result.
type Hit struct {
	ID       string
	Score    float64
	Text     string
	FilePath string
	Kind     string
}

// EmbeddingProvider turns texts into vectors. The mode distinguishes
// document indexing ("passage") from query embedding ("query") for models
// that prefix-condition on usage.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string, mode string) ([][]float32, error)
}
