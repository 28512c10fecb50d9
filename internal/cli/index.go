package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codeatlas/codeatlas/internal/codeindex"
	"github.com/codeatlas/codeatlas/internal/graph"
	"github.com/codeatlas/codeatlas/internal/indexer"
)

var (
	quietFlag   bool
	watchFlag   bool
	workersFlag int
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the code knowledge graph for a repository",
	Long: `Index parses every matching source file, resolves cross-file
references, and persists the resulting graph plus a queryable symbol
index under .codeatlas/.

Examples:
  # Index the current directory
  codeatlas index

  # Keep watching for changes and reindex on save
  codeatlas index --watch

  # Index without progress output
  codeatlas index --quiet
`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress output")
	indexCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and reindex")
	indexCmd.Flags().IntVar(&workersFlag, "workers", 0, "Parse worker count (default GOMAXPROCS)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Cancelling indexing...")
		cancel()
	}()

	root, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(graphDir(root), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	discovery, err := indexer.NewFileDiscovery(root, cfg.Paths.Include, cfg.Paths.Ignore)
	if err != nil {
		return fmt.Errorf("failed to compile path patterns: %w", err)
	}

	workers := cfg.Indexing.Workers
	if workersFlag > 0 {
		workers = workersFlag
	}

	idx := indexer.New(root, graphDir(root), discovery,
		indexer.WithProgress(NewCLIProgressReporter(quietFlag)),
		indexer.WithWorkers(workers),
	)

	if _, err := idx.Index(ctx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("indexing cancelled")
		}
		return fmt.Errorf("indexing failed: %w", err)
	}

	if err := rebuildCodeIndex(ctx, root); err != nil {
		return err
	}

	if watchFlag || cfg.Indexing.Watch {
		watcher, err := indexer.NewWatcher(idx, discovery, root)
		if err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer watcher.Stop()

		if !quietFlag {
			log.Println("Watching for changes (Ctrl+C to stop)...")
		}
		watcher.Start(ctx)
		<-ctx.Done()
	}

	return nil
}

// rebuildCodeIndex projects the freshly persisted graph into the SQLite
// symbol index the ask pipeline queries.
func rebuildCodeIndex(ctx context.Context, root string) error {
	g, err := graph.Load(graphDir(root))
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}

	dbPath := indexDBPath(root)
	// Rebuild from scratch so removed symbols do not linger.
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to reset code index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return err
	}

	store, err := codeindex.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open code index: %w", err)
	}
	defer store.Close()

	if err := store.PutEntries(ctx, codeindex.EntriesFromGraph(g)); err != nil {
		return fmt.Errorf("failed to write code index: %w", err)
	}
	return nil
}
