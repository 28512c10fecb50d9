package graph

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Persisted artifact names inside the graph directory.
const (
	NodesFileName    = "nodes.json"
	EdgesFileName    = "edges.json"
	MetadataFileName = "metadata.json"
)

// Save writes the graph to dir as three deterministic JSON artifacts:
// nodes.json sorted by node id, edges.json sorted by (source, target), and
// metadata.json with the build timestamp and counts. Each file is written
// to a temp path and renamed into place so readers never see a partial
// artifact. Edge multiplicity on identical (source, target) pairs is not
// preserved; the last edge's attributes win.
func Save(g *Graph, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create graph directory: %w", err)
	}

	nodes := g.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	seen := make(map[[2]string]int)
	edges := make([]Edge, 0, g.EdgeCount())
	for _, e := range g.Edges() {
		key := [2]string{e.Source, e.Target}
		if i, ok := seen[key]; ok {
			edges[i] = e
			continue
		}
		seen[key] = len(edges)
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})

	meta := Metadata{
		BuildTimestamp: time.Now().UTC(),
		NodeCount:      len(nodes),
		EdgeCount:      len(edges),
	}

	if err := writeJSON(dir, NodesFileName, nodes); err != nil {
		return err
	}
	if err := writeJSON(dir, EdgesFileName, edges); err != nil {
		return err
	}
	return writeJSON(dir, MetadataFileName, meta)
}

// Load reconstructs a graph from dir. A missing directory or missing
// artifacts yield an empty graph: "no graph yet" is a normal state, not an
// error. Malformed artifacts are logged and also treated as empty.
func Load(dir string) (*Graph, error) {
	g := New()

	var nodes []Node
	ok, err := readJSON(filepath.Join(dir, NodesFileName), &nodes)
	if err != nil || !ok {
		return g, err
	}
	for _, n := range nodes {
		g.AddNode(n)
	}

	var edges []Edge
	if ok, err := readJSON(filepath.Join(dir, EdgesFileName), &edges); err != nil || !ok {
		return g, err
	}
	for _, e := range edges {
		g.AddEdge(e)
	}

	return g, nil
}

// LoadMetadata reads the metadata record, or nil when no graph exists.
func LoadMetadata(dir string) (*Metadata, error) {
	var meta Metadata
	ok, err := readJSON(filepath.Join(dir, MetadataFileName), &meta)
	if err != nil || !ok {
		return nil, err
	}
	return &meta, nil
}

func writeJSON(dir, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	tempPath := filepath.Join(dir, "."+name+".tmp")
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp %s: %w", name, err)
	}

	// Atomic rename (POSIX guarantees atomicity)
	if err := os.Rename(tempPath, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("failed to rename temp %s: %w", name, err)
	}
	return nil
}

// readJSON returns (false, nil) when the file does not exist or cannot be
// parsed; both cases mean "treat as empty".
func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("Warning: malformed graph artifact %s, treating as empty: %v", path, err)
		return false, nil
	}
	return true, nil
}
