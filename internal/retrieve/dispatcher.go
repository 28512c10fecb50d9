package retrieve

import (
	"context"
	"log"

	"github.com/codeatlas/codeatlas/internal/classifier"
)

// Dispatcher routes a classified question to the retriever for its mode.
// A mode without a registered retriever, or a retriever error, degrades to
// the conceptual retriever when one is registered, and to an empty result
// otherwise.
type Dispatcher struct {
	retrievers map[classifier.Mode]Retriever
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{retrievers: make(map[classifier.Mode]Retriever)}
}

// Register installs a retriever for a mode, replacing any previous one.
func (d *Dispatcher) Register(mode classifier.Mode, r Retriever) {
	d.retrievers[mode] = r
}

// Dispatch runs the retriever for the classified mode.
func (d *Dispatcher) Dispatch(ctx context.Context, res classifier.Result, query string, budget int) []Result {
	r, ok := d.retrievers[res.Mode]
	if !ok {
		return d.fallback(ctx, res.Mode, query, budget)
	}

	results, err := r.Retrieve(ctx, query, budget)
	if err != nil {
		log.Printf("Warning: %s retrieval failed: %v", res.Mode, err)
		return d.fallback(ctx, res.Mode, query, budget)
	}
	// The mode-specific no-op path (no anchor/subject/scope extracted)
	// still deserves an answer attempt via plain search.
	if len(results) == 0 && res.Mode != classifier.ModeConceptual {
		return d.fallback(ctx, res.Mode, query, budget)
	}
	return results
}

func (d *Dispatcher) fallback(ctx context.Context, mode classifier.Mode, query string, budget int) []Result {
	if mode == classifier.ModeConceptual {
		return nil
	}
	conceptual, ok := d.retrievers[classifier.ModeConceptual]
	if !ok {
		return nil
	}
	results, err := conceptual.Retrieve(ctx, query, budget)
	if err != nil {
		log.Printf("Warning: conceptual fallback failed: %v", err)
		return nil
	}
	return results
}

// SufficientEvidence gates answer generation: an answer may only be
// generated when at least one evidence chunk cites a file.
func SufficientEvidence(results []Result) bool {
	for _, r := range results {
		if r.FilePath != "" {
			return true
		}
	}
	return false
}
