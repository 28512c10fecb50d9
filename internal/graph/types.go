// Package graph holds the code knowledge graph: one node per extracted
// symbol, one directed confidence-weighted edge per resolved reference.
// The graph is built once per index pass and queried read-only after that.
package graph

import (
	"time"

	"github.com/codeatlas/codeatlas/internal/parser"
)

// Node represents one code entity with its source location.
// The ID is the composite "<file_path>::<parent.name or name>" key and is
// deterministic: re-parsing identical source produces identical ids.
type Node struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"type"`
	FilePath  string `json:"file_path"`
	StartLine int    `json:"line_start"`
	EndLine   int    `json:"line_end"`
	Docstring string `json:"docstring,omitempty"`
	Signature string `json:"signature,omitempty"`
	Parent    string `json:"parent,omitempty"`
}

// Edge represents a directed relationship between two nodes. The target may
// be a dangling id (no node with that id exists) when the reference could
// not be resolved inside the repository; those edges model external
// dependencies and are kept on purpose.
type Edge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Kind       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Line       int     `json:"line"`
}

// Subgraph is an immutable snapshot returned by every query operation.
// It never aliases the live graph's internal state.
type Subgraph struct {
	Nodes []Node
	Edges []Edge
}

// Metadata describes a persisted graph build.
type Metadata struct {
	BuildTimestamp time.Time `json:"build_timestamp"`
	NodeCount      int       `json:"node_count"`
	EdgeCount      int       `json:"edge_count"`
}

// Graph is the in-memory code graph: a node store keyed by id plus
// outgoing/incoming adjacency indexes for O(1) neighbor lookup. Parallel
// edges between the same ordered pair are permitted (different call sites).
type Graph struct {
	nodes    map[string]*Node
	order    []string // node ids in insertion order
	edges    []Edge
	outgoing map[string][]int // node id -> indexes into edges
	incoming map[string][]int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]int),
		incoming: make(map[string][]int),
	}
}

// AddNode inserts a node. Re-adding an existing id overwrites its
// attributes but keeps the original discovery order.
func (g *Graph) AddNode(n Node) {
	if _, ok := g.nodes[n.ID]; !ok {
		g.order = append(g.order, n.ID)
	}
	copied := n
	g.nodes[n.ID] = &copied
}

// AddEdge inserts an edge. The source node must exist; edges whose source
// is unknown are rejected. A missing target is allowed (dangling edge).
func (g *Graph) AddEdge(e Edge) bool {
	if _, ok := g.nodes[e.Source]; !ok {
		return false
	}
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.outgoing[e.Source] = append(g.outgoing[e.Source], idx)
	g.incoming[e.Target] = append(g.incoming[e.Target], idx)
	return true
}

// Node returns the node for an id, or nil if absent.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// HasNode reports whether a node with the given id exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in discovery order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.nodes[id])
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Outgoing returns the edges whose source is the given node id.
func (g *Graph) Outgoing(id string) []Edge {
	return g.edgesAt(g.outgoing[id])
}

// Incoming returns the edges whose target is the given node id.
func (g *Graph) Incoming(id string) []Edge {
	return g.edgesAt(g.incoming[id])
}

func (g *Graph) edgesAt(idxs []int) []Edge {
	if len(idxs) == 0 {
		return nil
	}
	out := make([]Edge, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, g.edges[i])
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges, parallel edges included.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// EdgeKind constants mirror the reference kinds produced by the parsers.
const (
	EdgeCalls        = string(parser.RefCalls)
	EdgeInstantiates = string(parser.RefInstantiates)
	EdgeInherits     = string(parser.RefInherits)
	EdgeImports      = string(parser.RefImports)
)
