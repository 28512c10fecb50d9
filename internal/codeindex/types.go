// Package codeindex is the external code-index capability consumed by the
// retrievers: per-symbol entries queryable by file, name, raised exception,
// or literal error string, plus a store of pre-computed issues.
package codeindex

import "context"

// Entry is one indexed symbol with the facts retrievers reason about.
type Entry struct {
	FilePath     string   `json:"file_path"`
	Symbol       string   `json:"symbol"`
	Kind         string   `json:"kind"`
	StartLine    int      `json:"start_line"`
	EndLine      int      `json:"end_line"`
	Signature    string   `json:"signature,omitempty"`
	Docstring    string   `json:"docstring,omitempty"`
	Calls        []string `json:"calls,omitempty"`
	Callers      []string `json:"callers,omitempty"`
	Raises       []string `json:"raises,omitempty"`
	Mutates      []string `json:"mutates,omitempty"`
	ErrorStrings []string `json:"error_strings,omitempty"`
	ContentHash  string   `json:"content_hash"`
}

// Issue is one pre-computed finding about the codebase.
type Issue struct {
	FilePath string `json:"file_path"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// Index is the query surface over indexed entries.
type Index interface {
	// FindByFile returns entries whose file path contains scope.
	FindByFile(ctx context.Context, scope string) ([]Entry, error)

	// FindBySymbol returns entries whose symbol name matches name.
	FindBySymbol(ctx context.Context, name string) ([]Entry, error)

	// FindByRaises returns entries that raise the named exception.
	FindByRaises(ctx context.Context, exceptionName string) ([]Entry, error)

	// FindByErrorString full-text searches literal error strings.
	FindByErrorString(ctx context.Context, text string) ([]Entry, error)

	// Callees returns entries for the symbols a symbol calls.
	Callees(ctx context.Context, symbol string) ([]Entry, error)

	// Callers returns entries for the symbols that call a symbol.
	Callers(ctx context.Context, symbol string) ([]Entry, error)
}

// Issues is the query surface over pre-computed issues.
type Issues interface {
	// QueryIssues full-text searches issues, returning at most limit.
	QueryIssues(ctx context.Context, query string, limit int) ([]Issue, error)
}
