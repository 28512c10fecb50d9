package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/codeatlas/internal/llm"
)

func TestParseResult_ValidModes(t *testing.T) {
	tests := []struct {
		text string
		mode Mode
	}{
		{`{"mode": "diagnostic", "reasoning": "mentions an exception", "scope": "auth"}`, ModeDiagnostic},
		{`{"mode": "exploratory", "reasoning": "asks for a flow"}`, ModeExploratory},
		{`{"mode": "analytical", "reasoning": "asks about structure"}`, ModeAnalytical},
		{`{"mode": "conceptual", "reasoning": "general question"}`, ModeConceptual},
		{"```json\n{\"mode\": \"diagnostic\", \"reasoning\": \"fenced\"}\n```", ModeDiagnostic},
	}
	for _, tt := range tests {
		res := ParseResult(tt.text)
		assert.Equal(t, tt.mode, res.Mode, tt.text)
		assert.NotEmpty(t, res.Reasoning)
	}
}

func TestParseResult_MalformedDegradesToConceptual(t *testing.T) {
	for _, text := range []string{
		"not json at all",
		`{"mode": "quantum"}`,
		`{"reasoning": "no mode key"}`,
		"",
		`{"mode": 42}`,
	} {
		res := ParseResult(text)
		assert.Equal(t, ModeConceptual, res.Mode, text)
		assert.NotEmpty(t, res.Reasoning, text)
	}
}

func TestClassify_UsesLowTemperature(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{`{"mode": "exploratory", "reasoning": "flow"}`}}
	res := New(mock).Classify(context.Background(), "trace the login flow")

	assert.Equal(t, ModeExploratory, res.Mode)
	require.Len(t, mock.Calls, 1)
	assert.InDelta(t, 0.1, mock.Calls[0].Temperature, 1e-6)
}

func TestClassify_CompletionFailureDegrades(t *testing.T) {
	mock := &llm.MockClient{Err: errors.New("connection refused")}
	res := New(mock).Classify(context.Background(), "why does login fail?")

	assert.Equal(t, ModeConceptual, res.Mode)
	assert.Contains(t, res.Reasoning, "classification unavailable")
}

func TestClassify_RateLimitDegrades(t *testing.T) {
	mock := &llm.MockClient{Err: llm.ErrRateLimit}
	res := New(mock).Classify(context.Background(), "anything")
	assert.Equal(t, ModeConceptual, res.Mode)
}
