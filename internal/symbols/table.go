// Package symbols aggregates parsed symbols repo-wide and resolves raw
// name references into node identifiers, adjusting confidence for
// ambiguity. A table is built fresh from the complete symbol set on every
// resolution pass; it is never updated incrementally.
package symbols

import (
	"github.com/codeatlas/codeatlas/internal/parser"
)

// NodeID composes the stable node identifier for a symbol in a file:
// "<file_path>::<parent.name>" when the symbol has an enclosing class,
// "<file_path>::<name>" otherwise.
func NodeID(filePath, qualifiedName string) string {
	return filePath + "::" + qualifiedName
}

// Table indexes node ids by simple and qualified symbol name.
type Table struct {
	bySimple    map[string][]string
	byQualified map[string][]string
	symbolCount int
}

// Build constructs a table from every file's symbols. Import and export
// symbols are deliberately excluded from the name indexes: they alias a
// definition elsewhere, and indexing them would make every imported name
// ambiguous with its definition.
func Build(files []*parser.ParseResult) *Table {
	t := &Table{
		bySimple:    make(map[string][]string),
		byQualified: make(map[string][]string),
	}
	for _, file := range files {
		if file == nil {
			continue
		}
		for i := range file.Symbols {
			sym := &file.Symbols[i]
			t.symbolCount++
			if sym.Kind == parser.SymbolImport || sym.Kind == parser.SymbolExport {
				continue
			}
			id := NodeID(file.FilePath, sym.QualifiedName())
			t.bySimple[sym.Name] = append(t.bySimple[sym.Name], id)
			if sym.Parent != "" {
				t.byQualified[sym.QualifiedName()] = append(t.byQualified[sym.QualifiedName()], id)
			}
		}
	}
	return t
}

// Lookup resolves a name to candidate node ids. The qualified-name index
// ("Class.method") is consulted first; plain names fall back to the
// simple-name index. The returned slice may be empty, single, or multiple.
func (t *Table) Lookup(name string) []string {
	if ids, ok := t.byQualified[name]; ok {
		return ids
	}
	return t.bySimple[name]
}

// Len returns the number of indexed symbols (imports excluded).
func (t *Table) Len() int {
	return len(t.bySimple)
}

// SymbolCount returns the total number of symbols seen during Build.
func (t *Table) SymbolCount() int {
	return t.symbolCount
}
