package graph

import (
	"errors"
	"path"
	"sort"
	"strings"

	dbgraph "github.com/dominikbraun/graph"
)

// ErrNodeNotFound is returned when a query names a node id that is not in
// the graph. This indicates a caller error, not a runtime failure.
var ErrNodeNotFound = errors.New("node not found in graph")

// Calls returns the outgoing "calls" edges of a node meeting the confidence
// floor, with their target nodes. Dangling targets have no node to return,
// so only edges into real nodes are included.
func Calls(g *Graph, nodeID string, minConfidence float64) (Subgraph, error) {
	return adjacentCalls(g, nodeID, minConfidence, true)
}

// Callers is the symmetric operation over incoming "calls" edges.
func Callers(g *Graph, nodeID string, minConfidence float64) (Subgraph, error) {
	return adjacentCalls(g, nodeID, minConfidence, false)
}

func adjacentCalls(g *Graph, nodeID string, minConfidence float64, outgoing bool) (Subgraph, error) {
	if !g.HasNode(nodeID) {
		return Subgraph{}, ErrNodeNotFound
	}

	var edges []Edge
	if outgoing {
		edges = g.Outgoing(nodeID)
	} else {
		edges = g.Incoming(nodeID)
	}

	var sub Subgraph
	seen := make(map[string]bool)
	for _, e := range edges {
		if e.Kind != EdgeCalls || e.Confidence < minConfidence {
			continue
		}
		other := e.Target
		if !outgoing {
			other = e.Source
		}
		n := g.Node(other)
		if n == nil {
			continue
		}
		sub.Edges = append(sub.Edges, e)
		if !seen[other] {
			seen[other] = true
			sub.Nodes = append(sub.Nodes, *n)
		}
	}
	return sub, nil
}

// Neighborhood expands breadth-first in both directions from a center node,
// up to hops steps, following only edges that meet the confidence floor.
// The result contains the union of visited nodes (center included) and the
// edges between visited nodes, deduplicated by (source, target) with the
// last edge's attributes winning. The visited set guarantees termination on
// cyclic graphs; hops == 0 returns only the center.
func Neighborhood(g *Graph, nodeID string, hops int, minConfidence float64) (Subgraph, error) {
	if !g.HasNode(nodeID) {
		return Subgraph{}, ErrNodeNotFound
	}

	visited := map[string]bool{nodeID: true}
	frontier := []string{nodeID}

	for step := 0; step < hops && len(frontier) > 0; step++ {
		var next []string
		for _, id := range frontier {
			for _, e := range g.Outgoing(id) {
				if e.Confidence < minConfidence || !g.HasNode(e.Target) {
					continue
				}
				if !visited[e.Target] {
					visited[e.Target] = true
					next = append(next, e.Target)
				}
			}
			for _, e := range g.Incoming(id) {
				if e.Confidence < minConfidence {
					continue
				}
				if !visited[e.Source] {
					visited[e.Source] = true
					next = append(next, e.Source)
				}
			}
		}
		frontier = next
	}

	var sub Subgraph
	for _, n := range g.Nodes() {
		if visited[n.ID] {
			sub.Nodes = append(sub.Nodes, n)
		}
	}

	edgeAt := make(map[[2]string]int)
	for _, e := range g.Edges() {
		if !visited[e.Source] || !visited[e.Target] || e.Confidence < minConfidence {
			continue
		}
		key := [2]string{e.Source, e.Target}
		if i, ok := edgeAt[key]; ok {
			sub.Edges[i] = e
			continue
		}
		edgeAt[key] = len(sub.Edges)
		sub.Edges = append(sub.Edges, e)
	}
	return sub, nil
}

// testPathSegments and the filename checks below encode the fixed test-file
// conventions recognized across supported languages.
var testPathSegments = map[string]bool{
	"tests":     true,
	"test":      true,
	"spec":      true,
	"__tests__": true,
}

// IsTestFile reports whether a file path matches a test convention, by
// directory segment or by filename pattern.
func IsTestFile(filePath string) bool {
	norm := strings.ReplaceAll(filePath, "\\", "/")
	dir, base := path.Split(norm)
	for _, seg := range strings.Split(strings.Trim(dir, "/"), "/") {
		if testPathSegments[seg] {
			return true
		}
	}

	switch {
	case strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"):
		return true
	case strings.HasSuffix(base, "_test.py"):
		return true
	case strings.HasSuffix(base, "_test.go"):
		return true
	}
	for _, suffix := range []string{
		".test.js", ".test.ts", ".test.jsx", ".test.tsx",
		".spec.js", ".spec.ts",
	} {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

// FilterTestNodes returns a new graph containing only nodes from non-test
// files. Edges survive only when both endpoints survive, so dangling edges
// are dropped along with test-file nodes. The operation is idempotent.
func FilterTestNodes(g *Graph) *Graph {
	out := New()
	for _, n := range g.Nodes() {
		if !IsTestFile(n.FilePath) {
			out.AddNode(n)
		}
	}
	for _, e := range g.Edges() {
		if out.HasNode(e.Source) && out.HasNode(e.Target) {
			out.AddEdge(e)
		}
	}
	return out
}

// ComponentEdge is one aggregated dependency between two components: the
// maximum observed confidence across contributing edges and how many edges
// contributed.
type ComponentEdge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Confidence float64 `json:"confidence"`
	Count      int     `json:"count"`
}

type componentStats struct {
	maxConfidence float64
	count         int
}

// Component returns the top-level path segment of a file path, the coarse
// architectural unit a node belongs to.
func Component(filePath string) string {
	norm := strings.Trim(strings.ReplaceAll(filePath, "\\", "/"), "/")
	if i := strings.Index(norm, "/"); i >= 0 {
		return norm[:i]
	}
	return norm
}

// ComponentGraph aggregates nodes to their component and emits one edge per
// ordered pair of distinct components with at least one qualifying edge
// between their members. Self-loops are excluded. Output order is sorted by
// (source, target) for deterministic diffs.
func ComponentGraph(g *Graph, minConfidence float64) []ComponentEdge {
	cg := dbgraph.New(dbgraph.StringHash, dbgraph.Directed())

	for _, e := range g.Edges() {
		if e.Confidence < minConfidence {
			continue
		}
		src := g.Node(e.Source)
		tgt := g.Node(e.Target)
		if src == nil || tgt == nil {
			continue
		}
		from := Component(src.FilePath)
		to := Component(tgt.FilePath)
		if from == to || from == "" || to == "" {
			continue
		}

		_ = cg.AddVertex(from)
		_ = cg.AddVertex(to)

		err := cg.AddEdge(from, to, dbgraph.EdgeData(&componentStats{
			maxConfidence: e.Confidence,
			count:         1,
		}))
		if errors.Is(err, dbgraph.ErrEdgeAlreadyExists) {
			existing, edgeErr := cg.Edge(from, to)
			if edgeErr != nil {
				continue
			}
			stats := existing.Properties.Data.(*componentStats)
			stats.count++
			if e.Confidence > stats.maxConfidence {
				stats.maxConfidence = e.Confidence
			}
		}
	}

	edges, err := cg.Edges()
	if err != nil {
		return nil
	}

	out := make([]ComponentEdge, 0, len(edges))
	for _, e := range edges {
		stats := e.Properties.Data.(*componentStats)
		out = append(out, ComponentEdge{
			Source:     e.Source,
			Target:     e.Target,
			Confidence: stats.maxConfidence,
			Count:      stats.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out
}

// TopEntryPoints selects up to n plausible externally-triggered nodes: at
// least one outgoing "calls" edge and zero incoming "calls" edges sourced
// from non-test files. Candidates are ranked by descending outgoing calls
// count; ties keep discovery order (stable sort).
func TopEntryPoints(g *Graph, n int) []Node {
	type candidate struct {
		node     Node
		outCalls int
	}

	var candidates []candidate
	for _, node := range g.Nodes() {
		outCalls := 0
		for _, e := range g.Outgoing(node.ID) {
			if e.Kind == EdgeCalls {
				outCalls++
			}
		}
		if outCalls == 0 {
			continue
		}

		called := false
		for _, e := range g.Incoming(node.ID) {
			if e.Kind != EdgeCalls {
				continue
			}
			src := g.Node(e.Source)
			if src != nil && !IsTestFile(src.FilePath) {
				called = true
				break
			}
		}
		if called {
			continue
		}
		candidates = append(candidates, candidate{node: node, outCalls: outCalls})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].outCalls > candidates[j].outCalls
	})
	if n < len(candidates) {
		candidates = candidates[:n]
	}

	out := make([]Node, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.node)
	}
	return out
}
