// Package indexer orchestrates one indexing pass: discover source files,
// parse them concurrently, resolve cross-file references, build the code
// graph, and persist it.
package indexer

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/codeatlas/codeatlas/internal/graph"
	"github.com/codeatlas/codeatlas/internal/parser"
	"github.com/codeatlas/codeatlas/internal/symbols"
)

// Indexer runs indexing passes over a repository.
type Indexer interface {
	// Index runs a full pass and persists the resulting graph.
	Index(ctx context.Context) (*Stats, error)

	// Failures returns the parse failures collected during the last pass.
	Failures() []*parser.ParseError
}

type indexer struct {
	rootDir   string
	graphDir  string
	discovery *FileDiscovery
	registry  *parser.Registry
	progress  ProgressReporter
	workers   int

	mu       sync.Mutex
	failures []*parser.ParseError
}

// Option configures an Indexer.
type Option func(*indexer)

// WithProgress configures progress reporting.
func WithProgress(progress ProgressReporter) Option {
	return func(i *indexer) {
		i.progress = progress
	}
}

// WithWorkers bounds the parse worker pool. Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(i *indexer) {
		if n > 0 {
			i.workers = n
		}
	}
}

// New creates an indexer for rootDir that writes its graph to graphDir.
func New(rootDir, graphDir string, discovery *FileDiscovery, opts ...Option) Indexer {
	i := &indexer{
		rootDir:   rootDir,
		graphDir:  graphDir,
		discovery: discovery,
		registry:  parser.NewRegistry(),
		progress:  &NoOpProgressReporter{},
		workers:   runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Index runs the full pipeline. Parsing is parallel per file; the symbol
// table and graph are built single-threaded afterward, since resolution
// needs every file's symbols to exist first.
func (i *indexer) Index(ctx context.Context) (*Stats, error) {
	start := time.Now()

	i.progress.OnDiscoveryStart()
	paths, err := i.discovery.DiscoverFiles()
	if err != nil {
		return nil, err
	}
	i.progress.OnDiscoveryComplete(len(paths))

	i.progress.OnParsingStart(len(paths))
	files, failures := i.parseAll(ctx, paths)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.mu.Lock()
	i.failures = failures
	i.mu.Unlock()
	for _, pe := range failures {
		log.Printf("Warning: failed to parse %s: %s", pe.FilePath, pe.Reason)
	}

	table := symbols.Build(files)
	resolved := symbols.Resolve(files, table)
	i.progress.OnResolutionComplete(table.SymbolCount(), len(resolved))

	g := graph.Build(files, resolved)
	if err := graph.Save(g, i.graphDir); err != nil {
		return nil, err
	}

	stats := &Stats{
		FilesDiscovered: len(paths),
		FilesParsed:     len(paths) - len(failures),
		ParseFailures:   len(failures),
		SymbolCount:     table.SymbolCount(),
		NodeCount:       g.NodeCount(),
		EdgeCount:       g.EdgeCount(),
		Duration:        time.Since(start),
	}
	i.progress.OnComplete(stats)
	return stats, nil
}

// Failures returns the parse failures collected during the last pass.
func (i *indexer) Failures() []*parser.ParseError {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]*parser.ParseError, len(i.failures))
	copy(out, i.failures)
	return out
}

// parseAll parses files with a bounded worker pool. Results keep discovery
// order so downstream passes are deterministic; a failure of one file never
// aborts the batch.
func (i *indexer) parseAll(ctx context.Context, paths []string) ([]*parser.ParseResult, []*parser.ParseError) {
	results := make([]*parser.ParseResult, len(paths))
	errs := make([]*parser.ParseError, len(paths))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < i.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx], errs[idx] = i.parseOne(ctx, paths[idx])
				i.progress.OnFileParsed(filepath.Base(paths[idx]))
			}
		}()
	}

feed:
	for idx := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	var files []*parser.ParseResult
	var failures []*parser.ParseError
	for idx := range paths {
		if results[idx] != nil {
			files = append(files, results[idx])
		}
		if errs[idx] != nil {
			failures = append(failures, errs[idx])
		}
	}
	return files, failures
}

func (i *indexer) parseOne(ctx context.Context, relPath string) (*parser.ParseResult, *parser.ParseError) {
	source, err := os.ReadFile(filepath.Join(i.rootDir, relPath))
	if err != nil {
		return nil, &parser.ParseError{FilePath: relPath, Reason: err.Error()}
	}

	res, err := i.registry.Parse(ctx, relPath, source)
	if err != nil {
		if pe, ok := err.(*parser.ParseError); ok {
			return nil, pe
		}
		return nil, &parser.ParseError{FilePath: relPath, Reason: err.Error()}
	}
	return res, nil
}
