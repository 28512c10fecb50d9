package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/codeatlas/codeatlas/internal/classifier"
	"github.com/codeatlas/codeatlas/internal/codeindex"
	"github.com/codeatlas/codeatlas/internal/config"
	"github.com/codeatlas/codeatlas/internal/graph"
	"github.com/codeatlas/codeatlas/internal/llm"
	"github.com/codeatlas/codeatlas/internal/retrieve"
	"github.com/codeatlas/codeatlas/internal/search"
	"github.com/codeatlas/codeatlas/internal/session"
)

var (
	sessionFlag      string
	interactiveFlag  bool
	budgetFlag       int
	showEvidenceFlag bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the indexed codebase",
	Long: `Ask classifies the question, retrieves evidence from the code
graph and symbol index, and generates an answer grounded in that
evidence. Questions with no supporting evidence are refused rather
than answered from thin air.

Examples:
  codeatlas ask "why does login raise AuthError?"
  codeatlas ask "trace the checkout flow"
  codeatlas ask --interactive
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&sessionFlag, "session", "", "Session id for follow-up context (default random)")
	askCmd.Flags().BoolVarP(&interactiveFlag, "interactive", "i", false, "Read questions interactively")
	askCmd.Flags().IntVar(&budgetFlag, "budget", 0, "Override the evidence budget")
	askCmd.Flags().BoolVar(&showEvidenceFlag, "show-evidence", false, "Print retrieved evidence before the answer")
}

func runAsk(cmd *cobra.Command, args []string) error {
	if !interactiveFlag && len(args) == 0 {
		return fmt.Errorf("provide a question or use --interactive")
	}

	root, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	engine, err := newAskEngine(ctx, root, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	sessionID := sessionFlag
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if !interactiveFlag {
		return engine.answer(ctx, sessionID, args[0])
	}

	fmt.Println("codeatlas interactive mode. Empty line exits.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			return nil
		}
		if err := engine.answer(ctx, sessionID, question); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// askEngine wires the full question pipeline: classify, retrieve, gate on
// evidence, generate.
type askEngine struct {
	cfg        *config.Config
	g          *graph.Graph
	store      *codeindex.Store
	extractor  *graph.ContextExtractor
	classifier *classifier.Classifier
	dispatcher *retrieve.Dispatcher
	client     llm.Client
	sessions   *session.Manager

	// nodesByLocation maps "file:start_line" to node ids, for attaching
	// evidence back to graph nodes.
	nodesByLocation map[string]string
}

func newAskEngine(ctx context.Context, root string, cfg *config.Config) (*askEngine, error) {
	g, err := graph.Load(graphDir(root))
	if err != nil {
		return nil, fmt.Errorf("failed to load graph (run codeatlas index first): %w", err)
	}
	if g.NodeCount() == 0 {
		return nil, fmt.Errorf("the graph is empty; run codeatlas index first")
	}

	store, err := codeindex.Open(indexDBPath(root))
	if err != nil {
		return nil, fmt.Errorf("failed to open code index: %w", err)
	}

	extractor, err := graph.NewContextExtractor(root)
	if err != nil {
		store.Close()
		return nil, err
	}

	client := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
	})

	hybrid, err := buildSearcher(ctx, cfg, g)
	if err != nil {
		store.Close()
		extractor.Close()
		return nil, err
	}

	dispatcher := retrieve.NewDispatcher()
	dispatcher.Register(classifier.ModeDiagnostic, retrieve.NewDiagnosticRetriever(store))
	dispatcher.Register(classifier.ModeExploratory, retrieve.NewExploratoryRetriever(store))
	dispatcher.Register(classifier.ModeAnalytical, retrieve.NewAnalyticalRetriever(store, store))
	dispatcher.Register(classifier.ModeConceptual, retrieve.NewConceptualRetriever(hybrid))

	engine := &askEngine{
		cfg:             cfg,
		g:               g,
		store:           store,
		extractor:       extractor,
		classifier:      classifier.New(client),
		dispatcher:      dispatcher,
		client:          client,
		sessions:        session.NewManager(cfg.Session.Capacity, cfg.Session.TTL()),
		nodesByLocation: make(map[string]string),
	}
	for _, n := range g.Nodes() {
		engine.nodesByLocation[fmt.Sprintf("%s:%d", n.FilePath, n.StartLine)] = n.ID
	}
	return engine, nil
}

// buildSearcher indexes every graph node into the hybrid searcher.
func buildSearcher(ctx context.Context, cfg *config.Config, g *graph.Graph) (*search.HybridSearcher, error) {
	var provider search.EmbeddingProvider
	switch cfg.Embedding.Provider {
	case "openai":
		provider = search.NewOpenAIEmbeddingProvider(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.Embedding.Model)
	default:
		provider = &search.HashEmbeddingProvider{}
	}

	semantic, err := search.NewSemanticSearcher(provider)
	if err != nil {
		return nil, err
	}
	lexical, err := search.NewLexicalSearcher()
	if err != nil {
		return nil, err
	}

	hybrid := search.NewHybridSearcher(semantic, lexical)
	if err := hybrid.Index(ctx, documentsFromGraph(g)); err != nil {
		return nil, fmt.Errorf("failed to index graph for search: %w", err)
	}
	return hybrid, nil
}

func documentsFromGraph(g *graph.Graph) []search.Document {
	nodes := g.Nodes()
	docs := make([]search.Document, 0, len(nodes))
	for _, n := range nodes {
		var b strings.Builder
		b.WriteString(n.Name)
		if n.Signature != "" {
			b.WriteString("\n")
			b.WriteString(n.Signature)
		}
		if n.Docstring != "" {
			b.WriteString("\n")
			b.WriteString(n.Docstring)
		}
		b.WriteString("\n")
		b.WriteString(n.FilePath)
		docs = append(docs, search.Document{
			ID:       n.ID,
			Text:     b.String(),
			FilePath: n.FilePath,
			Kind:     n.Kind,
		})
	}
	return docs
}

func (e *askEngine) Close() {
	e.sessions.Stop()
	e.extractor.Close()
	e.store.Close()
}

func (e *askEngine) answer(ctx context.Context, sessionID, question string) error {
	res := e.classifier.Classify(ctx, question)
	if verboseFlag {
		log.Printf("Classified as %s: %s", res.Mode, res.Reasoning)
	}

	budget := e.cfg.Retrieval.Budget
	if budgetFlag > 0 {
		budget = budgetFlag
	}
	results := e.dispatcher.Dispatch(ctx, res, question, budget)

	if showEvidenceFlag {
		for _, r := range results {
			fmt.Printf("--- %s (%s:%d-%d)\n%s\n", r.Source, r.FilePath, r.StartLine, r.EndLine, r.Content)
		}
	}

	if !retrieve.SufficientEvidence(results) {
		fmt.Println("I could not find evidence in the indexed codebase to answer that. Try rephrasing, or reindex with codeatlas index.")
		return nil
	}

	var cachedContext []string
	e.sessions.With(sessionID, func(s *session.Session) {
		for _, id := range s.NodeIDs() {
			if n, ok := s.Get(id); ok {
				cachedContext = append(cachedContext, fmt.Sprintf("%s (%s:%d)", n.Name, n.FilePath, n.StartLine))
			}
		}
	})

	answer, err := e.generate(ctx, question, res, results, cachedContext)
	if err != nil {
		log.Printf("Warning: answer generation failed: %v", err)
		fmt.Println("Answer generation is unavailable; the evidence above is the best I can offer.")
		if !showEvidenceFlag {
			for _, r := range results {
				fmt.Printf("--- %s (%s:%d-%d)\n%s\n", r.Source, r.FilePath, r.StartLine, r.EndLine, r.Content)
			}
		}
		return nil
	}

	fmt.Println(answer)
	e.rememberEvidence(sessionID, results)
	return nil
}

const answerSystemPrompt = `You are a code assistant answering questions about one specific
codebase. Answer ONLY from the evidence provided. Cite file paths and
line numbers. If the evidence does not support an answer, say so.`

func (e *askEngine) generate(ctx context.Context, question string, res classifier.Result, results []retrieve.Result, cachedContext []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Question (%s): %s\n\nEvidence:\n", res.Mode, question)
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s:%d-%d (%s)\n%s\n", i+1, r.FilePath, r.StartLine, r.EndLine, r.Relevance, r.Content)
		if snippet := e.snippetFor(r); snippet != "" {
			fmt.Fprintf(&b, "Source:\n%s\n", snippet)
		}
		b.WriteString("\n")
	}
	if len(cachedContext) > 0 {
		fmt.Fprintf(&b, "Previously discussed symbols:\n%s\n", strings.Join(cachedContext, "\n"))
	}

	resp, err := e.client.Complete(ctx, llm.Request{
		System:    answerSystemPrompt,
		User:      b.String(),
		MaxTokens: e.cfg.LLM.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// snippetFor pulls source lines around an evidence citation when the
// citation maps back to a graph node.
func (e *askEngine) snippetFor(r retrieve.Result) string {
	if r.FilePath == "" || r.StartLine == 0 {
		return ""
	}
	id, ok := e.nodesByLocation[fmt.Sprintf("%s:%d", r.FilePath, r.StartLine)]
	if !ok {
		return ""
	}
	snippet, err := e.extractor.Extract(e.g.Node(id), e.cfg.Indexing.ContextLines)
	if err != nil {
		return ""
	}
	return snippet
}

// rememberEvidence caches the graph nodes behind this answer's evidence so
// follow-up questions in the same session carry context.
func (e *askEngine) rememberEvidence(sessionID string, results []retrieve.Result) {
	var nodes []graph.Node
	for _, r := range results {
		key := fmt.Sprintf("%s:%d", r.FilePath, r.StartLine)
		if id, ok := e.nodesByLocation[key]; ok {
			nodes = append(nodes, *e.g.Node(id))
		} else if r.FilePath != "" {
			e.sessions.With(sessionID, func(s *session.Session) {
				s.MarkGap(key)
			})
		}
	}
	if len(nodes) == 0 {
		return
	}
	e.sessions.With(sessionID, func(s *session.Session) {
		s.AddNodes(nodes)
	})
}
