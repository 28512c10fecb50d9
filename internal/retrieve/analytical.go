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

const sourceAnalytical = "analytical"

// Structure thresholds. Entries above them become candidates, top 3 of
// each by magnitude.
const (
	godFunctionFanOut = 15
	hotspotFanIn      = 20
	maxFlaggedPerKind = 3
	maxIssues         = 5
)

var scopePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bflaws? in (?:the )?(.+?)(?:\?|\.|$)`),
	regexp.MustCompile(`(?i)\banalyz(?:e|se) (?:the )?(.+?)(?:\?|\.|$)`),
	regexp.MustCompile(`(?i)\bwhat'?s wrong with (?:the )?(.+?)(?:\?|\.|$)`),
	regexp.MustCompile(`(?i)\b(?:the )?([\w/.-]+?) structure\b`),
}

// ExtractScope returns the structural scope named by the query, or ""
// when no phrase pattern matches.
func ExtractScope(query string) string {
	for _, re := range scopePatterns {
		if m := re.FindStringSubmatch(query); m != nil {
			scope := strings.TrimSpace(m[1])
			scope = strings.TrimSuffix(scope, " structure")
			scope = strings.TrimSuffix(scope, " code")
			scope = strings.TrimSuffix(scope, " module")
			if scope != "" {
				return scope
			}
		}
	}
	return ""
}

// AnalyticalRetriever assesses structure: within the extracted scope it
// computes fan-out and fan-in per entry, flags threshold breaches, and
// merges in pre-computed issues matching the scope.
type AnalyticalRetriever struct {
	index  codeindex.Index
	issues codeindex.Issues
}

// NewAnalyticalRetriever creates an analytical retriever. issues may be
// nil when no issue store is available.
func NewAnalyticalRetriever(index codeindex.Index, issues codeindex.Issues) *AnalyticalRetriever {
	return &AnalyticalRetriever{index: index, issues: issues}
}

func (r *AnalyticalRetriever) Retrieve(ctx context.Context, query string, budget int) ([]Result, error) {
	scope := ExtractScope(query)
	if scope == "" {
		return nil, nil
	}

	entries, err := r.index.FindByFile(ctx, scope)
	if err != nil {
		log.Printf("Warning: scope lookup for %s failed: %v", scope, err)
		entries = nil
	}

	var results []Result
	results = append(results, flagByDegree(entries, sourceAnalytical,
		func(e codeindex.Entry) int { return len(e.Calls) },
		godFunctionFanOut,
		"god function candidate: fan-out %d exceeds %d")...)
	results = append(results, flagByDegree(entries, sourceAnalytical,
		func(e codeindex.Entry) int { return len(e.Callers) },
		hotspotFanIn,
		"hotspot candidate: fan-in %d exceeds %d")...)

	if r.issues != nil {
		issues, err := r.issues.QueryIssues(ctx, scope, maxIssues)
		if err != nil {
			log.Printf("Warning: issue lookup for %s failed: %v", scope, err)
		}
		for _, is := range issues {
			results = append(results, Result{
				Content:   fmt.Sprintf("[%s] %s\n%s", is.Category, is.Title, is.Content),
				Source:    sourceAnalytical,
				FilePath:  is.FilePath,
				Relevance: fmt.Sprintf("pre-computed %s issue in scope %q", is.Category, scope),
			})
		}
	}

	return capBudget(results, budget), nil
}

// flagByDegree flags entries whose degree exceeds the threshold, keeping
// the top candidates by magnitude.
func flagByDegree(entries []codeindex.Entry, source string, degree func(codeindex.Entry) int, threshold int, format string) []Result {
	var flagged []codeindex.Entry
	for _, e := range entries {
		if degree(e) > threshold {
			flagged = append(flagged, e)
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		return degree(flagged[i]) > degree(flagged[j])
	})
	if len(flagged) > maxFlaggedPerKind {
		flagged = flagged[:maxFlaggedPerKind]
	}

	out := make([]Result, 0, len(flagged))
	for _, e := range flagged {
		out = append(out, entryResult(e, source, fmt.Sprintf(format, degree(e), threshold)))
	}
	return out
}
