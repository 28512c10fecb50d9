package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/codeatlas/internal/parser"
	"github.com/codeatlas/codeatlas/internal/symbols"
)

func authFixture() []*parser.ParseResult {
	return []*parser.ParseResult{
		{
			FilePath: "auth/utils.py",
			Language: "python",
			Symbols: []parser.Symbol{
				{Name: "verify", Kind: parser.SymbolFunction, StartLine: 10, EndLine: 20},
			},
		},
		{
			FilePath: "auth/handler.py",
			Language: "python",
			Symbols: []parser.Symbol{
				{Name: "login", Kind: parser.SymbolFunction, StartLine: 5, EndLine: 25},
			},
			References: []parser.Reference{
				{SourceSymbol: "login", TargetName: "verify", Kind: parser.RefCalls, Confidence: 0.9, Line: 12},
			},
		},
	}
}

func TestBuild_TwoFileCallEdge(t *testing.T) {
	files := authFixture()
	table := symbols.Build(files)
	g := Build(files, symbols.Resolve(files, table))

	assert.Equal(t, 2, g.NodeCount())
	require.Equal(t, 1, g.EdgeCount())

	e := g.Edges()[0]
	assert.Equal(t, "auth/handler.py::login", e.Source)
	assert.Equal(t, "auth/utils.py::verify", e.Target)
	assert.Equal(t, EdgeCalls, e.Kind)
	assert.InDelta(t, 0.9, e.Confidence, 1e-9)
}

func TestBuild_DanglingEdgeForExternalTarget(t *testing.T) {
	files := []*parser.ParseResult{
		{
			FilePath: "app/main.py",
			Symbols: []parser.Symbol{
				{Name: "run", Kind: parser.SymbolFunction, StartLine: 1, EndLine: 5},
			},
			References: []parser.Reference{
				{SourceSymbol: "run", TargetName: "requests_get", Kind: parser.RefCalls, Confidence: 0.9, Line: 2},
			},
		},
	}
	table := symbols.Build(files)
	g := Build(files, symbols.Resolve(files, table))

	require.Equal(t, 1, g.EdgeCount())
	e := g.Edges()[0]
	assert.Equal(t, "requests_get", e.Target)
	assert.False(t, g.HasNode(e.Target))
	assert.InDelta(t, 0.27, e.Confidence, 1e-9)
}

func TestBuild_DropsEdgesWithUnknownSource(t *testing.T) {
	g := Build(nil, []symbols.Resolved{
		{SourceID: "ghost.py::phantom", TargetID: "somewhere", Kind: parser.RefCalls, Confidence: 0.9},
	})
	assert.Equal(t, 0, g.EdgeCount())
}

func TestGraph_ReAddingNodeKeepsOrder(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", Name: "a"})
	g.AddNode(Node{ID: "b", Name: "b"})
	g.AddNode(Node{ID: "a", Name: "a2"})

	nodes := g.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0].ID)
	assert.Equal(t, "a2", nodes[0].Name)
}
