package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeatlas/codeatlas/internal/graph"
)

var (
	minConfidenceFlag float64
	excludeTestsFlag  bool
	formatFlag        string
	hopsFlag          int
	topFlag           int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the persisted code graph",
	Long: `Query inspects the graph built by codeatlas index.

Node ids follow the "<file_path>::<symbol>" form, e.g.
api/auth.py::login for a top-level symbol and api/auth.py::AuthService
for a class whose methods it owns.

Examples:
  codeatlas query calls api/auth.py::login
  codeatlas query neighborhood api/auth.py::login --hops 2 --format mermaid
  codeatlas query entry-points --top 5
  codeatlas query components
`,
}

var queryCallsCmd = &cobra.Command{
	Use:   "calls <node-id>",
	Short: "Show what a node calls",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSubgraphQuery(args[0], func(g *graph.Graph) (graph.Subgraph, error) {
			return graph.Calls(g, args[0], minConfidenceFlag)
		})
	},
}

var queryCallersCmd = &cobra.Command{
	Use:   "callers <node-id>",
	Short: "Show what calls a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSubgraphQuery(args[0], func(g *graph.Graph) (graph.Subgraph, error) {
			return graph.Callers(g, args[0], minConfidenceFlag)
		})
	},
}

var queryNeighborhoodCmd = &cobra.Command{
	Use:   "neighborhood <node-id>",
	Short: "Show the hop-bounded neighborhood of a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSubgraphQuery(args[0], func(g *graph.Graph) (graph.Subgraph, error) {
			return graph.Neighborhood(g, args[0], hopsFlag, minConfidenceFlag)
		})
	},
}

var queryEntryPointsCmd = &cobra.Command{
	Use:   "entry-points",
	Short: "Show likely entry points, busiest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadQueryGraph()
		if err != nil {
			return err
		}
		nodes := graph.TopEntryPoints(g, topFlag)
		if len(nodes) == 0 {
			fmt.Println("No entry points found.")
			return nil
		}
		for _, n := range nodes {
			fmt.Printf("%s  (%s, %s:%d, %d outgoing calls)\n",
				n.Name, n.Kind, n.FilePath, n.StartLine, len(g.Outgoing(n.ID)))
		}
		return nil
	},
}

var queryComponentsCmd = &cobra.Command{
	Use:   "components",
	Short: "Show the component-level dependency graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadQueryGraph()
		if err != nil {
			return err
		}
		edges := graph.ComponentGraph(g, minConfidenceFlag)
		if len(edges) == 0 {
			fmt.Println("No cross-component edges found.")
			return nil
		}
		for _, e := range edges {
			fmt.Printf("%s -> %s  (%d edges, max confidence %.2f)\n",
				e.Source, e.Target, e.Count, e.Confidence)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(queryCallsCmd, queryCallersCmd, queryNeighborhoodCmd,
		queryEntryPointsCmd, queryComponentsCmd)

	queryCmd.PersistentFlags().Float64Var(&minConfidenceFlag, "min-confidence", 0, "Drop edges below this confidence")
	queryCmd.PersistentFlags().BoolVar(&excludeTestsFlag, "exclude-tests", false, "Exclude test files from results")
	queryCmd.PersistentFlags().StringVar(&formatFlag, "format", "text", "Output format: text, json, or mermaid")
	queryNeighborhoodCmd.Flags().IntVar(&hopsFlag, "hops", 1, "Traversal depth")
	queryEntryPointsCmd.Flags().IntVar(&topFlag, "top", 10, "Maximum entry points to show")
}

// loadQueryGraph loads the persisted graph, applying the test filter when
// requested.
func loadQueryGraph() (*graph.Graph, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	g, err := graph.Load(graphDir(root))
	if err != nil {
		return nil, fmt.Errorf("failed to load graph (run codeatlas index first): %w", err)
	}
	if excludeTestsFlag {
		g = graph.FilterTestNodes(g)
	}
	return g, nil
}

func runSubgraphQuery(nodeID string, query func(*graph.Graph) (graph.Subgraph, error)) error {
	g, err := loadQueryGraph()
	if err != nil {
		return err
	}
	sub, err := query(g)
	if err != nil {
		return fmt.Errorf("query for %s failed: %w", nodeID, err)
	}
	return printSubgraph(sub)
}

func printSubgraph(sub graph.Subgraph) error {
	switch formatFlag {
	case "mermaid":
		fmt.Println(graph.Mermaid(sub))
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sub)
	case "text":
		for _, n := range sub.Nodes {
			fmt.Printf("%s  (%s, %s:%d-%d)\n", n.ID, n.Kind, n.FilePath, n.StartLine, n.EndLine)
		}
		for _, e := range sub.Edges {
			fmt.Printf("  %s -[%s %.2f]-> %s\n", e.Source, e.Kind, e.Confidence, e.Target)
		}
	default:
		return fmt.Errorf("unknown format %q (want text, json, or mermaid)", formatFlag)
	}
	return nil
}
