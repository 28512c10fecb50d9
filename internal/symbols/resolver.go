package symbols

import (
	"github.com/codeatlas/codeatlas/internal/parser"
)

// Confidence penalties applied during resolution. The exact values are
// preserved for output compatibility; they are tunable, not load-bearing.
const (
	// AmbiguityPenalty is applied to each fan-out when a name resolves
	// to more than one candidate.
	AmbiguityPenalty = 0.5

	// UnresolvedPenalty is applied when a name resolves to nothing;
	// the reference is kept for external-dependency edges.
	UnresolvedPenalty = 0.3
)

// Resolved is a reference after resolution, carrying full node ids.
// Unresolved references keep the raw target name as their target id,
// which the graph builder turns into a dangling external edge.
type Resolved struct {
	SourceID   string
	TargetID   string
	TargetName string
	Kind       parser.RefKind
	Confidence float64
	Line       int
	Resolved   bool
}

// Resolve maps every reference in every file through the table. One input
// reference can produce several outputs: each ambiguous candidate fans out
// into its own resolved reference at half confidence, a unique candidate
// passes through unchanged, and a miss stays unresolved at 0.3x. Callers
// must treat this as a list-expanding map, never 1:1.
func Resolve(files []*parser.ParseResult, table *Table) []Resolved {
	var out []Resolved
	for _, file := range files {
		if file == nil {
			continue
		}
		for _, ref := range file.References {
			sourceID := NodeID(file.FilePath, ref.SourceSymbol)
			candidates := table.Lookup(ref.TargetName)

			switch len(candidates) {
			case 0:
				out = append(out, Resolved{
					SourceID:   sourceID,
					TargetID:   ref.TargetName,
					TargetName: ref.TargetName,
					Kind:       ref.Kind,
					Confidence: ref.Confidence * UnresolvedPenalty,
					Line:       ref.Line,
					Resolved:   false,
				})
			case 1:
				out = append(out, Resolved{
					SourceID:   sourceID,
					TargetID:   candidates[0],
					TargetName: ref.TargetName,
					Kind:       ref.Kind,
					Confidence: ref.Confidence,
					Line:       ref.Line,
					Resolved:   true,
				})
			default:
				for _, candidate := range candidates {
					out = append(out, Resolved{
						SourceID:   sourceID,
						TargetID:   candidate,
						TargetName: ref.TargetName,
						Kind:       ref.Kind,
						Confidence: ref.Confidence * AmbiguityPenalty,
						Line:       ref.Line,
						Resolved:   true,
					})
				}
			}
		}
	}
	return out
}
