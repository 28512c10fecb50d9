package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(id string, fields map[string]any) Document {
	return Document{ID: id, Fields: fields}
}

func TestFuse_PresenceInBothListsWins(t *testing.T) {
	semantic := []Document{doc("both", nil), doc("sem-only", nil)}
	lexical := []Document{doc("both", nil), doc("fts-only", nil)}

	fused := Fuse(semantic, lexical, Options{})
	require.Len(t, fused, 3)

	// A document at rank 0 in both lists beats one at rank 0 in only one.
	assert.Equal(t, "both", fused[0].ID)
	assert.Greater(t, fused[0].Score, fused[1].Score)
}

func TestFuse_DisjointSingleItemLists(t *testing.T) {
	a := Fuse([]Document{doc("x", nil)}, []Document{doc("y", nil)}, Options{})
	b := Fuse([]Document{doc("y", nil)}, []Document{doc("x", nil)}, Options{})

	require.Len(t, a, 2)
	require.Len(t, b, 2)

	idsA := []string{a[0].ID, a[1].ID}
	idsB := []string{b[0].ID, b[1].ID}
	assert.ElementsMatch(t, idsA, []string{"x", "y"})
	assert.ElementsMatch(t, idsB, []string{"x", "y"})

	// Scores are symmetric regardless of which list is semantic.
	assert.InDelta(t, a[0].Score, b[0].Score, 1e-12)
	assert.InDelta(t, a[1].Score, b[1].Score, 1e-12)
}

func TestFuse_ExactScoreFormula(t *testing.T) {
	fused := Fuse([]Document{doc("d", nil)}, nil, Options{})
	require.Len(t, fused, 1)
	want := 1.0/float64(60+0+1) + 1.0/float64(60+1000+1)
	assert.InDelta(t, want, fused[0].Score, 1e-12)
}

func TestFuse_SemanticFieldsPreferred(t *testing.T) {
	semantic := []Document{doc("d", map[string]any{"snippet": "from vectors"})}
	lexical := []Document{doc("d", map[string]any{"snippet": "from fts"})}

	fused := Fuse(semantic, lexical, Options{})
	require.Len(t, fused, 1)
	assert.Equal(t, "from vectors", fused[0].Fields["snippet"])
}

func TestFuse_TiesKeepFirstSeenOrder(t *testing.T) {
	// Two documents each appearing only in the semantic list at adjacent
	// ranks have different scores; equal scores only arise from equal rank
	// pairs, e.g. one doc per list at rank 0.
	fused := Fuse([]Document{doc("a", nil)}, []Document{doc("b", nil)}, Options{})
	require.Len(t, fused, 2)
	assert.Equal(t, "a", fused[0].ID, "semantic-first tie break")
	assert.Equal(t, fused[0].Score, fused[1].Score)
}

func TestFuse_EmptyInputs(t *testing.T) {
	assert.Empty(t, Fuse(nil, nil, Options{}))
}

func TestFuse_CustomConstants(t *testing.T) {
	fused := Fuse([]Document{doc("d", nil)}, nil, Options{K: 1, MissingRank: 3})
	require.Len(t, fused, 1)
	want := 1.0/float64(1+0+1) + 1.0/float64(1+3+1)
	assert.InDelta(t, want, fused[0].Score, 1e-12)
}
