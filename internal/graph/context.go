package graph

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maypok86/otter"
)

// Context extraction defaults and limits.
const (
	DefaultContextLines = 3
	MaxContextLines     = 20
	fileCacheCapacity   = 256
)

// ContextExtractor reads source snippets around a node's location. File
// contents are cached so repeated queries against the same file do not
// re-read it from disk.
type ContextExtractor struct {
	rootDir string
	cache   otter.Cache[string, []string]
}

// NewContextExtractor creates an extractor rooted at the repository
// directory node file paths are relative to.
func NewContextExtractor(rootDir string) (*ContextExtractor, error) {
	cache, err := otter.MustBuilder[string, []string](fileCacheCapacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build file cache: %w", err)
	}
	return &ContextExtractor{rootDir: rootDir, cache: cache}, nil
}

// Extract returns the node's source lines with contextLines of surrounding
// context on each side. Out-of-range line numbers are clamped.
func (c *ContextExtractor) Extract(node *Node, contextLines int) (string, error) {
	if contextLines < 0 {
		contextLines = DefaultContextLines
	}
	if contextLines > MaxContextLines {
		contextLines = MaxContextLines
	}

	lines, err := c.fileLines(node.FilePath)
	if err != nil {
		return "", err
	}

	start := node.StartLine - 1 - contextLines
	if start < 0 {
		start = 0
	}
	end := node.EndLine + contextLines
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return "", nil
	}
	return strings.Join(lines[start:end], "\n"), nil
}

// Close releases the cache's background resources.
func (c *ContextExtractor) Close() {
	c.cache.Close()
}

func (c *ContextExtractor) fileLines(relPath string) ([]string, error) {
	if lines, ok := c.cache.Get(relPath); ok {
		return lines, nil
	}

	data, err := os.ReadFile(filepath.Join(c.rootDir, relPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", relPath, err)
	}
	lines := strings.Split(string(data), "\n")
	c.cache.Set(relPath, lines)
	return lines, nil
}
