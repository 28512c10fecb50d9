// Package cli implements the codeatlas command tree.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codeatlas/codeatlas/internal/config"
)

var (
	rootDirFlag string
	verboseFlag bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "codeatlas",
	Short: "Code knowledge graph builder and evidence-gated Q&A",
	Long: `codeatlas parses a codebase into a knowledge graph of symbols and
relationships, then answers questions about it with evidence cited
straight from the graph.

Typical workflow:
  codeatlas index                 # build .codeatlas/ for the current repo
  codeatlas query calls <node>    # inspect the graph
  codeatlas ask "why does login raise AuthError?"
`,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDirFlag, "root", "", "project root (default is the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output")
}

// projectRoot resolves the project root from the --root flag or the
// working directory.
func projectRoot() (string, error) {
	if rootDirFlag != "" {
		return filepath.Abs(rootDirFlag)
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return dir, nil
}

// loadConfig loads configuration for the resolved project root.
func loadConfig() (string, *config.Config, error) {
	root, err := projectRoot()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.NewLoader(root).Load()
	if err != nil {
		return "", nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return root, cfg, nil
}

// graphDir returns where the persisted graph lives for a project root.
func graphDir(root string) string {
	return filepath.Join(root, config.IndexDirName, "graph")
}

// indexDBPath returns the code index database path for a project root.
func indexDBPath(root string) string {
	return filepath.Join(root, config.IndexDirName, "index.db")
}
