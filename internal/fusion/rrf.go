// Package fusion merges independently ranked result lists with reciprocal
// rank fusion. RRF is rank-based, not score-based, so lists with
// incomparable scoring schemes (vector distance vs BM25) fuse cleanly.
package fusion

import "sort"

// Defaults for the RRF constant and the rank assigned to a document that
// is missing from one of the lists.
const (
	DefaultK           = 60
	DefaultMissingRank = 1000
)

// Document is one ranked result. Fields carries whatever the search
// backend attached; RRF only requires the id.
type Document struct {
	ID     string
	Fields map[string]any
}

// Fused is a document annotated with its fused score.
type Fused struct {
	Document
	Score float64
}

// Options tune the fusion constants. Zero values fall back to defaults.
type Options struct {
	K           int
	MissingRank int
}

// Fuse merges a semantic and a lexical ranked list. Every document in
// either list scores 1/(k+rank_sem+1) + 1/(k+rank_fts+1), with the missing
// rank standing in for absent documents. When both lists contain an id the
// semantic version's fields win. Output is sorted by descending score; ties
// break by first appearance (semantic list order, then lexical), so the
// order is a deterministic total order for a fixed input.
func Fuse(semantic, lexical []Document, opts Options) []Fused {
	k := opts.K
	if k <= 0 {
		k = DefaultK
	}
	missing := opts.MissingRank
	if missing <= 0 {
		missing = DefaultMissingRank
	}

	semRank := make(map[string]int, len(semantic))
	docs := make(map[string]Document)
	var order []string

	for i, d := range semantic {
		if _, ok := semRank[d.ID]; ok {
			continue
		}
		semRank[d.ID] = i
		docs[d.ID] = d
		order = append(order, d.ID)
	}

	ftsRank := make(map[string]int, len(lexical))
	for i, d := range lexical {
		if _, ok := ftsRank[d.ID]; ok {
			continue
		}
		ftsRank[d.ID] = i
		if _, ok := docs[d.ID]; !ok {
			// Semantic fields take precedence, so only fill in documents
			// the semantic list did not produce.
			docs[d.ID] = d
			order = append(order, d.ID)
		}
	}

	rank := func(ranks map[string]int, id string) int {
		if r, ok := ranks[id]; ok {
			return r
		}
		return missing
	}

	out := make([]Fused, 0, len(order))
	for _, id := range order {
		score := 1.0/float64(k+rank(semRank, id)+1) + 1.0/float64(k+rank(ftsRank, id)+1)
		out = append(out, Fused{Document: docs[id], Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
