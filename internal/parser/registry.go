package parser

import (
	"context"
	"path/filepath"
	"strings"
)

// Parser parses source text for one language family.
type Parser interface {
	// Language returns the language name ("python", "typescript", ...).
	Language() string

	// Extensions returns the file extensions this parser handles,
	// with leading dot (".py", ".ts").
	Extensions() []string

	// Parse parses the given source. A returned error is always a
	// *ParseError; callers collect it rather than aborting a batch.
	Parse(ctx context.Context, filePath string, source []byte) (*ParseResult, error)
}

// Registry selects the most specific parser for a file path.
type Registry struct {
	byExt    map[string]Parser
	fallback Parser
}

// NewRegistry creates a registry with the default language parsers and the
// doc-comment fallback parser.
func NewRegistry() *Registry {
	r := &Registry{
		byExt:    make(map[string]Parser),
		fallback: NewFallbackParser(),
	}
	r.Register(NewPythonParser())
	r.Register(NewTypeScriptParser())
	r.Register(NewTSXParser())
	r.Register(NewRustParser())
	return r
}

// Register adds a parser for all of its extensions. Later registrations win
// on extension conflicts.
func (r *Registry) Register(p Parser) {
	for _, ext := range p.Extensions() {
		r.byExt[strings.ToLower(ext)] = p
	}
}

// ParserFor returns the parser for the path's extension, or the fallback
// parser when no registered parser matches. Never returns nil.
func (r *Registry) ParserFor(path string) Parser {
	ext := strings.ToLower(filepath.Ext(path))
	if p, ok := r.byExt[ext]; ok {
		return p
	}
	return r.fallback
}

// Parse parses one file with the selected parser.
func (r *Registry) Parse(ctx context.Context, filePath string, source []byte) (*ParseResult, error) {
	return r.ParserFor(filePath).Parse(ctx, filePath, source)
}

// Supported reports whether the path maps to a language-aware parser
// (as opposed to the fallback).
func (r *Registry) Supported(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}
