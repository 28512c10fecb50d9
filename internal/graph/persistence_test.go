package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() *Graph {
	g := New()
	g.AddNode(Node{ID: "b.py::beta", Name: "beta", Kind: "function", FilePath: "b.py", StartLine: 1, EndLine: 3})
	g.AddNode(Node{ID: "a.py::alpha", Name: "alpha", Kind: "function", FilePath: "a.py", StartLine: 1, EndLine: 5})
	g.AddEdge(Edge{Source: "a.py::alpha", Target: "b.py::beta", Kind: EdgeCalls, Confidence: 0.9, Line: 2})
	g.AddEdge(Edge{Source: "b.py::beta", Target: "json_loads", Kind: EdgeCalls, Confidence: 0.27, Line: 2})
	return g
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	g := sampleGraph()
	require.NoError(t, Save(g, dir))

	loaded, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, g.NodeCount(), loaded.NodeCount())
	assert.Equal(t, g.EdgeCount(), loaded.EdgeCount())
	for _, n := range g.Nodes() {
		got := loaded.Node(n.ID)
		require.NotNil(t, got, n.ID)
		assert.Equal(t, n, *got)
	}
	assert.ElementsMatch(t, g.Edges(), loaded.Edges())
}

func TestSave_SortedArtifacts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(sampleGraph(), dir))

	nodes, err := os.ReadFile(filepath.Join(dir, NodesFileName))
	require.NoError(t, err)
	// alpha sorts before beta even though beta was added first.
	assert.Less(t,
		strings.Index(string(nodes), "a.py::alpha"),
		strings.Index(string(nodes), "b.py::beta"))

	meta, err := LoadMetadata(dir)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 2, meta.NodeCount)
	assert.Equal(t, 2, meta.EdgeCount)
	assert.False(t, meta.BuildTimestamp.IsZero())
}

func TestSave_DeduplicatesParallelEdges(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", Name: "a", FilePath: "a.py"})
	g.AddNode(Node{ID: "b", Name: "b", FilePath: "b.py"})
	g.AddEdge(Edge{Source: "a", Target: "b", Kind: EdgeCalls, Confidence: 0.5, Line: 1})
	g.AddEdge(Edge{Source: "a", Target: "b", Kind: EdgeCalls, Confidence: 0.9, Line: 7})

	dir := t.TempDir()
	require.NoError(t, Save(g, dir))
	loaded, err := Load(dir)
	require.NoError(t, err)

	// Last write wins on the (source, target) key.
	require.Equal(t, 1, loaded.EdgeCount())
	assert.Equal(t, 7, loaded.Edges()[0].Line)
}

func TestLoad_MissingDirectoryIsEmptyGraph(t *testing.T) {
	g, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
}

func TestLoad_MalformedArtifactsAreEmptyGraph(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, NodesFileName), []byte("{not json"), 0644))

	g, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, g.NodeCount())
}
