package retrieve

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/codeatlas/codeatlas/internal/codeindex"
)

const sourceDiagnostic = "diagnostic"

// DiagnosticRetriever investigates errors: it extracts error anchors from
// the query, looks up entries by raises-clause, error string, and file, and
// walks the callers of every matched entry one level up.
type DiagnosticRetriever struct {
	index codeindex.Index
}

// NewDiagnosticRetriever creates a diagnostic retriever over the index.
func NewDiagnosticRetriever(index codeindex.Index) *DiagnosticRetriever {
	return &DiagnosticRetriever{index: index}
}

func (r *DiagnosticRetriever) Retrieve(ctx context.Context, query string, budget int) ([]Result, error) {
	anchors := ExtractErrorAnchors(query)
	if anchors.Empty() {
		// Documented no-op path: nothing to anchor on.
		return nil, nil
	}

	var results []Result
	var matchedSymbols []string
	seen := make(map[string]bool)
	add := func(e codeindex.Entry, relevance string) {
		key := e.FilePath + "::" + e.Symbol
		if seen[key] {
			return
		}
		seen[key] = true
		matchedSymbols = appendUnique(matchedSymbols, e.Symbol)
		results = append(results, entryResult(e, sourceDiagnostic, relevance))
	}

	for _, exc := range anchors.Exceptions {
		entries, err := r.index.FindByRaises(ctx, exc)
		if err != nil {
			log.Printf("Warning: raises lookup for %s failed: %v", exc, err)
			continue
		}
		for _, e := range entries {
			add(e, fmt.Sprintf("raises %s mentioned in the question", exc))
		}
	}

	for _, msg := range anchors.ErrorStrings {
		entries, err := r.index.FindByErrorString(ctx, msg)
		if err != nil {
			log.Printf("Warning: error-string lookup failed: %v", err)
			continue
		}
		for _, e := range entries {
			add(e, fmt.Sprintf("contains error string %q", msg))
		}
	}

	for _, file := range anchors.Files {
		entries, err := r.index.FindByFile(ctx, file)
		if err != nil {
			log.Printf("Warning: file lookup for %s failed: %v", file, err)
			continue
		}
		for _, e := range entries {
			add(e, fmt.Sprintf("defined in %s from the stack trace", file))
		}
	}

	// Walk one level of callers so the answer can explain how the failing
	// code is reached.
	for _, symbol := range matchedSymbols[:len(matchedSymbols):len(matchedSymbols)] {
		callers, err := r.index.Callers(ctx, symbol)
		if err != nil {
			log.Printf("Warning: caller walk for %s failed: %v", symbol, err)
			continue
		}
		for _, e := range callers {
			add(e, fmt.Sprintf("calls %s, which matched an error anchor", symbol))
		}
	}

	return capBudget(results, budget), nil
}

// entryResult renders an index entry as an evidence chunk.
func entryResult(e codeindex.Entry, source, relevance string) Result {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %s:%d-%d)", e.Symbol, e.Kind, e.FilePath, e.StartLine, e.EndLine)
	if e.Signature != "" {
		fmt.Fprintf(&b, "\nsignature: %s", e.Signature)
	}
	if e.Docstring != "" {
		fmt.Fprintf(&b, "\n%s", e.Docstring)
	}
	if len(e.Raises) > 0 {
		fmt.Fprintf(&b, "\nraises: %s", strings.Join(e.Raises, ", "))
	}
	if len(e.ErrorStrings) > 0 {
		fmt.Fprintf(&b, "\nerror strings: %q", e.ErrorStrings)
	}

	return Result{
		Content:   b.String(),
		Source:    source,
		FilePath:  e.FilePath,
		StartLine: e.StartLine,
		EndLine:   e.EndLine,
		Relevance: relevance,
	}
}
