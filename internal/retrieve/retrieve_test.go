package retrieve

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/codeatlas/internal/classifier"
	"github.com/codeatlas/codeatlas/internal/codeindex"
)

// fakeIndex is an in-memory codeindex.Index for retriever tests.
type fakeIndex struct {
	entries []codeindex.Entry
	err     error
}

func (f *fakeIndex) filter(pred func(codeindex.Entry) bool) ([]codeindex.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []codeindex.Entry
	for _, e := range f.entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeIndex) FindByFile(ctx context.Context, scope string) ([]codeindex.Entry, error) {
	return f.filter(func(e codeindex.Entry) bool { return strings.Contains(e.FilePath, scope) })
}

func (f *fakeIndex) FindBySymbol(ctx context.Context, name string) ([]codeindex.Entry, error) {
	return f.filter(func(e codeindex.Entry) bool { return strings.EqualFold(e.Symbol, name) })
}

func (f *fakeIndex) FindByRaises(ctx context.Context, exc string) ([]codeindex.Entry, error) {
	return f.filter(func(e codeindex.Entry) bool {
		for _, r := range e.Raises {
			if r == exc {
				return true
			}
		}
		return false
	})
}

func (f *fakeIndex) FindByErrorString(ctx context.Context, text string) ([]codeindex.Entry, error) {
	return f.filter(func(e codeindex.Entry) bool {
		for _, s := range e.ErrorStrings {
			if strings.Contains(s, text) {
				return true
			}
		}
		return false
	})
}

func (f *fakeIndex) Callees(ctx context.Context, symbol string) ([]codeindex.Entry, error) {
	owners, err := f.FindBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	var out []codeindex.Entry
	for _, owner := range owners {
		for _, name := range owner.Calls {
			matches, _ := f.FindBySymbol(ctx, name)
			out = append(out, matches...)
		}
	}
	return out, nil
}

func (f *fakeIndex) Callers(ctx context.Context, symbol string) ([]codeindex.Entry, error) {
	owners, err := f.FindBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	var out []codeindex.Entry
	for _, owner := range owners {
		for _, name := range owner.Callers {
			matches, _ := f.FindBySymbol(ctx, name)
			out = append(out, matches...)
		}
	}
	return out, nil
}

type fakeIssues struct {
	issues []codeindex.Issue
}

func (f *fakeIssues) QueryIssues(ctx context.Context, query string, limit int) ([]codeindex.Issue, error) {
	if limit < len(f.issues) {
		return f.issues[:limit], nil
	}
	return f.issues, nil
}

func authIndex() *fakeIndex {
	return &fakeIndex{entries: []codeindex.Entry{
		{
			FilePath: "auth/handler.py", Symbol: "login", Kind: "route",
			StartLine: 5, EndLine: 25,
			Calls:   []string{"verify"},
			Callers: []string{},
		},
		{
			FilePath: "auth/utils.py", Symbol: "verify", Kind: "function",
			StartLine: 10, EndLine: 20,
			Calls:        []string{"decode"},
			Callers:      []string{"login"},
			Raises:       []string{"TokenExpiredError"},
			ErrorStrings: []string{"token has expired"},
		},
		{
			FilePath: "auth/utils.py", Symbol: "decode", Kind: "function",
			StartLine: 22, EndLine: 30,
			Callers: []string{"verify"},
		},
	}}
}

func TestExtractErrorAnchors(t *testing.T) {
	a := ExtractErrorAnchors(`Why do I get TokenExpiredError saying "token has expired" in File "auth/utils.py", line 14?`)
	assert.Equal(t, []string{"TokenExpiredError"}, a.Exceptions)
	assert.Equal(t, []string{"token has expired"}, a.ErrorStrings)
	assert.Equal(t, []string{"auth/utils.py"}, a.Files)

	assert.True(t, ExtractErrorAnchors("how does login work?").Empty())

	b := ExtractErrorAnchors("crash at auth/utils.py:14 in prod")
	assert.Equal(t, []string{"auth/utils.py"}, b.Files)
}

func TestDiagnosticRetriever(t *testing.T) {
	r := NewDiagnosticRetriever(authIndex())
	results, err := r.Retrieve(context.Background(), `Getting TokenExpiredError from the API`, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// verify matched by raises; login pulled in by the caller walk.
	var haveVerify, haveLogin bool
	for _, res := range results {
		assert.Equal(t, "diagnostic", res.Source)
		if strings.HasPrefix(res.Content, "verify ") {
			haveVerify = true
			assert.Contains(t, res.Relevance, "TokenExpiredError")
		}
		if strings.HasPrefix(res.Content, "login ") {
			haveLogin = true
			assert.Contains(t, res.Relevance, "calls verify")
		}
	}
	assert.True(t, haveVerify)
	assert.True(t, haveLogin)
}

func TestDiagnosticRetriever_NoAnchorIsNoOp(t *testing.T) {
	r := NewDiagnosticRetriever(authIndex())
	results, err := r.Retrieve(context.Background(), "tell me about authentication", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDiagnosticRetriever_IndexFailureDegrades(t *testing.T) {
	r := NewDiagnosticRetriever(&fakeIndex{err: errors.New("db down")})
	results, err := r.Retrieve(context.Background(), "TokenExpiredError in prod", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestExtractSubject(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"trace the login flow", "login"},
		{"how does verify work?", "verify"},
		{"walk me through the checkout", "checkout"},
		{"what is the payment path", "payment"},
		{"tell me about the weather", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractSubject(tt.query), tt.query)
	}
}

func TestExploratoryRetriever_TracesFlow(t *testing.T) {
	r := NewExploratoryRetriever(authIndex())
	results, err := r.Retrieve(context.Background(), "trace the login flow", 20)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	flow := results[0]
	assert.Contains(t, flow.Content, "Flow from login")
	assert.Contains(t, flow.Content, "-> verify")
	assert.Contains(t, flow.Content, "-> decode")
	assert.Equal(t, "auth/handler.py", flow.FilePath)
}

func TestExploratoryRetriever_CycleSafe(t *testing.T) {
	idx := &fakeIndex{entries: []codeindex.Entry{
		{FilePath: "a.py", Symbol: "ping", Kind: "function", Calls: []string{"pong"}},
		{FilePath: "a.py", Symbol: "pong", Kind: "function", Calls: []string{"ping"}},
	}}
	r := NewExploratoryRetriever(idx)
	results, err := r.Retrieve(context.Background(), "trace the ping flow", 50)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	// ping appears once in the trace despite the cycle.
	assert.Equal(t, 1, strings.Count(results[0].Content, "-> ping"))
}

func TestExploratoryRetriever_NoSubjectIsNoOp(t *testing.T) {
	r := NewExploratoryRetriever(authIndex())
	results, err := r.Retrieve(context.Background(), "is this codebase good?", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestExtractScope(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"what are the flaws in auth", "auth"},
		{"analyze billing", "billing"},
		{"what's wrong with the payment module", "payment"},
		{"describe the auth structure", "auth"},
		{"hello there", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractScope(tt.query), tt.query)
	}
}

func TestAnalyticalRetriever_FlagsThresholdBreaches(t *testing.T) {
	manyCalls := make([]string, 16)
	for i := range manyCalls {
		manyCalls[i] = "x"
	}
	manyCallers := make([]string, 21)
	for i := range manyCallers {
		manyCallers[i] = "y"
	}

	idx := &fakeIndex{entries: []codeindex.Entry{
		{FilePath: "auth/big.py", Symbol: "do_everything", Kind: "function", Calls: manyCalls},
		{FilePath: "auth/hot.py", Symbol: "get_session", Kind: "function", Callers: manyCallers},
		{FilePath: "auth/ok.py", Symbol: "fine", Kind: "function", Calls: []string{"a"}},
	}}
	issues := &fakeIssues{issues: []codeindex.Issue{
		{FilePath: "auth/big.py", Category: "complexity", Title: "do_everything is huge", Content: "split it"},
	}}

	r := NewAnalyticalRetriever(idx, issues)
	results, err := r.Retrieve(context.Background(), "what are the flaws in auth", 20)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Contains(t, results[0].Relevance, "god function")
	assert.Contains(t, results[0].Relevance, "16")
	assert.Contains(t, results[1].Relevance, "hotspot")
	assert.Contains(t, results[2].Content, "do_everything is huge")
}

func TestAnalyticalRetriever_NoScopeIsNoOp(t *testing.T) {
	r := NewAnalyticalRetriever(authIndex(), nil)
	results, err := r.Retrieve(context.Background(), "hello", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

type stubRetriever struct {
	results []Result
	err     error
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, budget int) ([]Result, error) {
	return s.results, s.err
}

func TestDispatcher_RoutesByMode(t *testing.T) {
	d := NewDispatcher()
	d.Register(classifier.ModeDiagnostic, &stubRetriever{results: []Result{{Content: "diag", FilePath: "a.py"}}})
	d.Register(classifier.ModeConceptual, &stubRetriever{results: []Result{{Content: "concept", FilePath: "b.py"}}})

	out := d.Dispatch(context.Background(), classifier.Result{Mode: classifier.ModeDiagnostic}, "q", 10)
	require.Len(t, out, 1)
	assert.Equal(t, "diag", out[0].Content)
}

func TestDispatcher_EmptyModeResultFallsBackToConceptual(t *testing.T) {
	d := NewDispatcher()
	d.Register(classifier.ModeExploratory, &stubRetriever{})
	d.Register(classifier.ModeConceptual, &stubRetriever{results: []Result{{Content: "concept"}}})

	out := d.Dispatch(context.Background(), classifier.Result{Mode: classifier.ModeExploratory}, "q", 10)
	require.Len(t, out, 1)
	assert.Equal(t, "concept", out[0].Content)
}

func TestDispatcher_RetrieverErrorDegrades(t *testing.T) {
	d := NewDispatcher()
	d.Register(classifier.ModeAnalytical, &stubRetriever{err: errors.New("boom")})

	out := d.Dispatch(context.Background(), classifier.Result{Mode: classifier.ModeAnalytical}, "q", 10)
	assert.Empty(t, out)
}

func TestSufficientEvidence(t *testing.T) {
	assert.False(t, SufficientEvidence(nil))
	assert.False(t, SufficientEvidence([]Result{{Content: "no citation"}}))
	assert.True(t, SufficientEvidence([]Result{{Content: "cited", FilePath: "a.py"}}))
}
