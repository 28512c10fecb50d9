package graph

import (
	"log"

	"github.com/codeatlas/codeatlas/internal/parser"
	"github.com/codeatlas/codeatlas/internal/symbols"
)

// Build assembles the graph from parsed files and resolved references.
//
// One node is added per symbol using the composite id scheme. One edge is
// added per resolved reference whose source node exists; if the target node
// is absent the edge is still added as a dangling edge so that dependency
// views can see external coupling. References whose source node is absent
// are dropped.
func Build(files []*parser.ParseResult, resolved []symbols.Resolved) *Graph {
	g := New()

	for _, file := range files {
		if file == nil {
			continue
		}
		for i := range file.Symbols {
			sym := &file.Symbols[i]
			g.AddNode(Node{
				ID:        symbols.NodeID(file.FilePath, sym.QualifiedName()),
				Name:      sym.Name,
				Kind:      string(sym.Kind),
				FilePath:  file.FilePath,
				StartLine: sym.StartLine,
				EndLine:   sym.EndLine,
				Docstring: sym.Docstring,
				Signature: sym.Signature,
				Parent:    sym.Parent,
			})
		}
	}

	dropped := 0
	for _, ref := range resolved {
		added := g.AddEdge(Edge{
			Source:     ref.SourceID,
			Target:     ref.TargetID,
			Kind:       string(ref.Kind),
			Confidence: ref.Confidence,
			Line:       ref.Line,
		})
		if !added {
			dropped++
		}
	}
	if dropped > 0 {
		log.Printf("Warning: dropped %d references with unknown source nodes", dropped)
	}

	return g
}
