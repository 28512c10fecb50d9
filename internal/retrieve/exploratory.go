package retrieve

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/codeatlas/codeatlas/internal/codeindex"
)

const sourceExploratory = "exploratory"

// Walk bounds for the forward trace.
const (
	maxTraceDepth       = 3
	maxCalleesPerNode   = 3
	maxEntryPointsTried = 3
)

var subjectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btrace (?:the |through )?(.+?)(?:\?|\.|$)`),
	regexp.MustCompile(`(?i)\bwalk (?:me )?through (?:the )?(.+?)(?:\?|\.|$)`),
	regexp.MustCompile(`(?i)\bhow does (?:the )?(.+?)(?:\?|\.| work| happen|$)`),
	regexp.MustCompile(`(?i)\b(?:the )?([\w.-]+) flow\b`),
	regexp.MustCompile(`(?i)\b(?:the )?([\w.-]+) path\b`),
}

// ExtractSubject returns the trace subject named by the query, or "" when
// no phrase pattern matches.
func ExtractSubject(query string) string {
	for _, re := range subjectPatterns {
		if m := re.FindStringSubmatch(query); m != nil {
			subject := strings.TrimSpace(m[1])
			subject = strings.TrimSuffix(subject, " flow")
			subject = strings.TrimSuffix(subject, " path")
			if subject != "" {
				return subject
			}
		}
	}
	return ""
}

// ExploratoryRetriever traces flows: it extracts a subject, picks entry
// point candidates for it (route handlers rank above plain functions), and
// walks the callee graph depth-first within fixed bounds, producing a flow
// trace plus per-step detail entries.
type ExploratoryRetriever struct {
	index codeindex.Index
}

// NewExploratoryRetriever creates an exploratory retriever over the index.
func NewExploratoryRetriever(index codeindex.Index) *ExploratoryRetriever {
	return &ExploratoryRetriever{index: index}
}

func (r *ExploratoryRetriever) Retrieve(ctx context.Context, query string, budget int) ([]Result, error) {
	subject := ExtractSubject(query)
	if subject == "" {
		return nil, nil
	}

	candidates := r.findEntryPoints(ctx, subject)
	if len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) > maxEntryPointsTried {
		candidates = candidates[:maxEntryPointsTried]
	}

	var results []Result
	for _, entry := range candidates {
		var trace []string
		var steps []Result
		visited := map[string]bool{}
		r.walk(ctx, entry, 0, visited, &trace, &steps)

		results = append(results, Result{
			Content:   fmt.Sprintf("Flow from %s:\n%s", entry.Symbol, strings.Join(trace, "\n")),
			Source:    sourceExploratory,
			FilePath:  entry.FilePath,
			StartLine: entry.StartLine,
			EndLine:   entry.EndLine,
			Relevance: fmt.Sprintf("entry point for %q", subject),
		})
		results = append(results, steps...)
	}

	return capBudget(results, budget), nil
}

// findEntryPoints collects entries whose symbol mentions the subject,
// ranked with route handlers and flagged entry points first.
func (r *ExploratoryRetriever) findEntryPoints(ctx context.Context, subject string) []codeindex.Entry {
	var candidates []codeindex.Entry
	seen := make(map[string]bool)

	for _, token := range subjectTokens(subject) {
		entries, err := r.index.FindBySymbol(ctx, token)
		if err != nil {
			log.Printf("Warning: symbol lookup for %s failed: %v", token, err)
			continue
		}
		for _, e := range entries {
			key := e.FilePath + "::" + e.Symbol
			if !seen[key] {
				seen[key] = true
				candidates = append(candidates, e)
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return entryPointRank(candidates[i]) < entryPointRank(candidates[j])
	})
	return candidates
}

func entryPointRank(e codeindex.Entry) int {
	switch e.Kind {
	case "route", "cli-command":
		return 0
	case "function":
		return 1
	default:
		return 2
	}
}

// walk explores callees depth-first, cycle-safe via a visited-name set.
func (r *ExploratoryRetriever) walk(ctx context.Context, entry codeindex.Entry, depth int, visited map[string]bool, trace *[]string, steps *[]Result) {
	if depth > maxTraceDepth || visited[entry.Symbol] {
		return
	}
	visited[entry.Symbol] = true

	indent := strings.Repeat("  ", depth)
	*trace = append(*trace, fmt.Sprintf("%s-> %s (%s:%d)", indent, entry.Symbol, entry.FilePath, entry.StartLine))
	if depth > 0 {
		*steps = append(*steps, entryResult(entry, sourceExploratory,
			fmt.Sprintf("step at depth %d of the traced flow", depth)))
	}

	if depth == maxTraceDepth {
		return
	}

	callees, err := r.index.Callees(ctx, entry.Symbol)
	if err != nil {
		log.Printf("Warning: callee lookup for %s failed: %v", entry.Symbol, err)
		return
	}
	if len(callees) > maxCalleesPerNode {
		callees = callees[:maxCalleesPerNode]
	}
	for _, callee := range callees {
		r.walk(ctx, callee, depth+1, visited, trace, steps)
	}
}

// subjectTokens splits a subject phrase into candidate symbol names,
// longest first so specific names are tried before generic ones.
func subjectTokens(subject string) []string {
	fields := strings.FieldsFunc(subject, func(r rune) bool {
		return r == ' ' || r == '.' || r == '-'
	})
	var tokens []string
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if len(f) >= 3 && !stopWords[f] {
			tokens = append(tokens, f)
		}
	}
	sort.SliceStable(tokens, func(i, j int) bool { return len(tokens[i]) > len(tokens[j]) })
	return tokens
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "through": true,
	"does": true, "work": true, "works": true, "data": true,
}
