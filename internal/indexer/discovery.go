package indexer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery walks a repository and selects the source files to index,
// applying include and ignore glob patterns.
type FileDiscovery struct {
	rootDir         string
	includePatterns []compiledPattern
	ignorePatterns  []compiledPattern
}

// NewFileDiscovery compiles the given glob patterns. Patterns use '/' as
// the separator regardless of platform.
func NewFileDiscovery(rootDir string, includePatterns, ignorePatterns []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{rootDir: rootDir}

	for _, pattern := range includePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.includePatterns = append(fd.includePatterns, compiledPattern{pattern: pattern, glob: g})
	}
	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.ignorePatterns = append(fd.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	return fd, nil
}

// DiscoverFiles walks the tree and returns repo-relative paths of files
// matching the include patterns, in walk order.
func (fd *FileDiscovery) DiscoverFiles() ([]string, error) {
	var files []string

	err := filepath.Walk(fd.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if path != fd.rootDir && fd.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if fd.shouldIgnore(relPath) {
			return nil
		}
		if fd.matchesAnyPattern(relPath, fd.includePatterns) {
			files = append(files, relPath)
		}
		return nil
	})

	return files, err
}

// Matches reports whether a repo-relative path is an indexable file.
func (fd *FileDiscovery) Matches(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	return !fd.shouldIgnore(relPath) && fd.matchesAnyPattern(relPath, fd.includePatterns)
}

// shouldIgnore checks a path against the ignore patterns. The index
// output directory is always ignored.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	if strings.HasPrefix(relPath, ".codeatlas/") || relPath == ".codeatlas" {
		return true
	}
	if fd.matchesAnyPattern(relPath, fd.ignorePatterns) {
		return true
	}

	// A directory named "node_modules" should match the pattern
	// "node_modules/**" even before its contents are visited.
	return fd.matchesAnyPattern(relPath+"/**", fd.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func (fd *FileDiscovery) matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// Root-level files have no slash, so "**/*.py" would not match
	// "main.py"; retry with the **/ prefix stripped.
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if g, err := glob.Compile(simplified, '/'); err == nil && g.Match(path) {
					return true
				}
			}
		}
	}

	return false
}
