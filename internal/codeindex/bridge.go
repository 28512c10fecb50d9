package codeindex

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/codeatlas/codeatlas/internal/graph"
)

// EntriesFromGraph projects the code graph into index entries: one entry
// per node, with call lists derived from the graph's call edges. Dangling
// call targets (external dependencies) still appear in Calls under the
// name embedded in their id.
func EntriesFromGraph(g *graph.Graph) []Entry {
	entries := make([]Entry, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		e := Entry{
			FilePath:  n.FilePath,
			Symbol:    n.Name,
			Kind:      n.Kind,
			StartLine: n.StartLine,
			EndLine:   n.EndLine,
			Signature: n.Signature,
			Docstring: n.Docstring,
		}

		for _, edge := range g.Outgoing(n.ID) {
			if edge.Kind != graph.EdgeCalls {
				continue
			}
			e.Calls = appendUniqueName(e.Calls, calleeName(g, edge.Target))
		}
		for _, edge := range g.Incoming(n.ID) {
			if edge.Kind != graph.EdgeCalls {
				continue
			}
			if src := g.Node(edge.Source); src != nil {
				e.Callers = appendUniqueName(e.Callers, src.Name)
			}
		}

		e.ContentHash = contentHash(e)
		entries = append(entries, e)
	}
	return entries
}

// calleeName resolves a call target id to a symbol name. Dangling ids keep
// whatever trails the last "::" separator, or the raw id when there is none.
func calleeName(g *graph.Graph, targetID string) string {
	if n := g.Node(targetID); n != nil {
		return n.Name
	}
	if i := strings.LastIndex(targetID, "::"); i >= 0 {
		return targetID[i+2:]
	}
	return targetID
}

func appendUniqueName(list []string, name string) []string {
	if name == "" {
		return list
	}
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}

func contentHash(e Entry) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%d\x00%d\x00%s\x00%s",
		e.FilePath, e.Symbol, e.StartLine, e.EndLine, e.Signature, e.Docstring)))
	return hex.EncodeToString(sum[:8])
}
