package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tsSource = `import { verify } from "./auth";

export class TokenStore {
  refresh(token: string) {
    return verify(token);
  }
}

export function login(user: string): boolean {
  const store = new TokenStore();
  return verify(user);
}

export const logout = (user: string) => {
  audit.record(user);
};

interface Claims {}
type UserID = string;
`

func TestTypeScriptParser_Symbols(t *testing.T) {
	res, err := NewTypeScriptParser().Parse(context.Background(), "src/auth.ts", []byte(tsSource))
	require.NoError(t, err)

	store := findSymbol(res, "TokenStore")
	require.NotNil(t, store)
	assert.Equal(t, SymbolClass, store.Kind)

	refresh := findSymbol(res, "refresh")
	require.NotNil(t, refresh)
	assert.Equal(t, SymbolMethod, refresh.Kind)
	assert.Equal(t, "TokenStore", refresh.Parent)

	logout := findSymbol(res, "logout")
	require.NotNil(t, logout)
	assert.Equal(t, SymbolFunction, logout.Kind)

	claims := findSymbol(res, "Claims")
	require.NotNil(t, claims)
	assert.Equal(t, SymbolInterface, claims.Kind)

	userID := findSymbol(res, "UserID")
	require.NotNil(t, userID)
	assert.Equal(t, SymbolTypeAlias, userID.Kind)

	assert.Contains(t, res.Exports, "login")
	assert.Contains(t, res.Exports, "TokenStore")
	assert.Contains(t, res.Imports, "verify")
}

func TestTypeScriptParser_References(t *testing.T) {
	res, err := NewTypeScriptParser().Parse(context.Background(), "src/auth.ts", []byte(tsSource))
	require.NoError(t, err)

	var foundCall, foundNew, foundMemberCall bool
	for _, ref := range res.References {
		if ref.SourceSymbol == "login" && ref.TargetName == "verify" && ref.Kind == RefCalls {
			foundCall = true
			assert.InDelta(t, ConfidenceDirectCall, ref.Confidence, 1e-9)
		}
		if ref.SourceSymbol == "login" && ref.TargetName == "TokenStore" && ref.Kind == RefInstantiates {
			foundNew = true
		}
		if ref.SourceSymbol == "logout" && ref.TargetName == "record" && ref.Kind == RefCalls {
			foundMemberCall = true
			assert.InDelta(t, ConfidenceAttributeCall, ref.Confidence, 1e-9)
		}
	}
	assert.True(t, foundCall, "login -> verify call")
	assert.True(t, foundNew, "login -> new TokenStore()")
	assert.True(t, foundMemberCall, "logout -> audit.record member call")
}
