package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SelectsByExtension(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		path string
		lang string
	}{
		{"app/main.py", "python"},
		{"src/index.ts", "typescript"},
		{"src/App.tsx", "tsx"},
		{"src/lib.rs", "rust"},
		{"Makefile", "unknown"},
		{"README.adoc", "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.lang, r.ParserFor(tt.path).Language(), tt.path)
	}
}

func TestRegistry_SupportedExcludesFallback(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.Supported("a.py"))
	assert.False(t, r.Supported("a.xyz"))
}

func TestFallbackParser_Synopsis(t *testing.T) {
	source := `//! Utility helpers for request signing.
//!
//! # Examples
//!
//! sign(request)

fn sign(req: Request) -> Signature {
}
`
	res, err := NewFallbackParser().Parse(context.Background(), "notes/signing.txt", []byte(source))
	require.NoError(t, err)
	require.NotEmpty(t, res.Symbols)

	file := res.Symbols[0]
	assert.Contains(t, file.Docstring, "Utility helpers for request signing.")
	assert.Equal(t, "examples", file.Signature)

	sign := findSymbol(res, "sign")
	require.NotNil(t, sign)
	assert.Equal(t, SymbolFunction, sign.Kind)
}

func TestDecoratorRegistry_MatchingRule(t *testing.T) {
	reg := DefaultDecoratorRegistry()

	tests := []struct {
		raw        string
		matched    bool
		entryPoint bool
		method     string
	}{
		{`app.get("/users")`, true, true, "GET"},
		{`router.post("/users", response_model=UserOut)`, true, true, "POST"},
		{`shared_task`, true, true, ""},
		// Object pattern set but decorator is bare: no match.
		{`get("/users")`, false, false, ""},
		// Object present but pattern mismatch.
		{`db.get("/users")`, false, false, ""},
		{`functools.cache`, false, false, ""},
	}

	for _, tt := range tests {
		eff := reg.Apply(tt.raw)
		assert.Equal(t, tt.matched, eff.Matched, tt.raw)
		assert.Equal(t, tt.entryPoint, eff.EntryPoint, tt.raw)
		if tt.method != "" {
			assert.Equal(t, tt.method, eff.HTTPMethod, tt.raw)
		}
	}
}

func TestDecoratorRegistry_TypeRefs(t *testing.T) {
	reg := DefaultDecoratorRegistry()
	eff := reg.Apply(`app.get("/items/{id}", response_model=ItemOut)`)
	require.True(t, eff.Matched)
	assert.Equal(t, []string{"ItemOut"}, eff.TypeRefs)
	assert.Equal(t, "/items/{id}", eff.Route)
}
