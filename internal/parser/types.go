// Package parser turns source files into language-neutral symbols and
// unresolved references. Each language parser walks a tree-sitter AST;
// files with no registered parser fall through to a doc-comment scanner.
package parser

import "fmt"

// SymbolKind classifies a code entity extracted from one file.
type SymbolKind string

const (
	SymbolFunction   SymbolKind = "function"
	SymbolClass      SymbolKind = "class"
	SymbolMethod     SymbolKind = "method"
	SymbolImport     SymbolKind = "import"
	SymbolExport     SymbolKind = "export"
	SymbolVariable   SymbolKind = "variable"
	SymbolConstant   SymbolKind = "constant"
	SymbolInterface  SymbolKind = "interface"
	SymbolTypeAlias  SymbolKind = "type-alias"
	SymbolEnum       SymbolKind = "enum"
	SymbolDecorator  SymbolKind = "decorator"
	SymbolRoute      SymbolKind = "route"
	SymbolCLICommand SymbolKind = "cli-command"
)

// SymbolMeta carries framework-derived flags for a symbol.
type SymbolMeta struct {
	// IsEntryPoint marks symbols a framework invokes directly
	// (route handlers, CLI commands, task workers).
	IsEntryPoint bool `json:"is_entry_point,omitempty"`

	// HTTPMethod is set for route handlers ("GET", "POST", ...).
	HTTPMethod string `json:"http_method,omitempty"`

	// Route is the path argument of a routing decorator, when present.
	Route string `json:"route,omitempty"`
}

// Symbol is a named code entity extracted from one file.
// Line numbers are 1-indexed and inclusive.
type Symbol struct {
	Name       string     `json:"name"`
	Kind       SymbolKind `json:"kind"`
	StartLine  int        `json:"start_line"`
	EndLine    int        `json:"end_line"`
	Docstring  string     `json:"docstring,omitempty"`
	Signature  string     `json:"signature,omitempty"`
	Parent     string     `json:"parent,omitempty"` // enclosing class, for methods
	Decorators []string   `json:"decorators,omitempty"`
	Meta       SymbolMeta `json:"meta,omitempty"`
}

// QualifiedName returns the parent-qualified name ("Class.method") or the
// bare name when the symbol has no parent.
func (s *Symbol) QualifiedName() string {
	if s.Parent != "" {
		return s.Parent + "." + s.Name
	}
	return s.Name
}

// RefKind classifies a reference between code entities.
type RefKind string

const (
	RefCalls        RefKind = "calls"
	RefInstantiates RefKind = "instantiates"
	RefInherits     RefKind = "inherits"
	RefImports      RefKind = "imports"
)

// Reference is a directed, typed, confidence-scored relationship discovered
// inside one file before resolution. SourceSymbol is the parent-qualified
// name of the referencing symbol within its file; TargetName is the raw
// referenced name. The resolver fills TargetID and TargetResolved.
type Reference struct {
	SourceSymbol   string  `json:"source_symbol"`
	TargetName     string  `json:"target_name"`
	Kind           RefKind `json:"kind"`
	Confidence     float64 `json:"confidence"`
	Line           int     `json:"line"`
	TargetResolved bool    `json:"target_resolved"`
	TargetID       string  `json:"target_id,omitempty"`
}

// ParseResult is the successful output of parsing one file.
type ParseResult struct {
	FilePath   string
	Language   string
	Symbols    []Symbol
	Imports    []string
	Exports    []string
	References []Reference
}

// ParseError is a per-file parse failure. It is collected by batch callers,
// never allowed to abort a batch.
type ParseError struct {
	FilePath string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.FilePath, e.Reason)
}

// Default reference confidences. These express extraction certainty before
// resolution adjusts them; tunable, not load-bearing.
const (
	ConfidenceDirectCall    = 0.9
	ConfidenceAttributeCall = 0.7
	ConfidenceInstantiation = 0.8
	ConfidenceInheritance   = 0.95
	ConfidenceImport        = 1.0
	ConfidenceDecoratorRef  = 0.85
)
