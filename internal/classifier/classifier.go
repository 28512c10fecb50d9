// Package classifier turns a natural-language question into a retrieval
// mode by delegating to the text-completion capability. Classification is
// best-effort: any failure degrades to the conceptual mode rather than
// surfacing an error to the caller.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/codeatlas/codeatlas/internal/llm"
)

// Mode selects which retriever handles a question.
type Mode string

const (
	ModeDiagnostic  Mode = "diagnostic"
	ModeExploratory Mode = "exploratory"
	ModeAnalytical  Mode = "analytical"
	ModeConceptual  Mode = "conceptual"
)

// Result is the classification outcome for one question.
type Result struct {
	Mode      Mode   `json:"mode"`
	Reasoning string `json:"reasoning"`
	Scope     string `json:"scope,omitempty"`
}

// Classification must lean deterministic, so temperature stays fixed low.
const classifyTemperature = 0.1

const defaultTimeout = 15 * time.Second

const systemPrompt = `You classify questions about a codebase into exactly one retrieval mode:

- "diagnostic": investigating an error, exception, failure, or unexpected behavior.
- "exploratory": tracing how data or control flows through the system.
- "analytical": assessing structure or quality (complexity, coupling, design flaws).
- "conceptual": everything else; general explanation of what something is or does.

Respond with a JSON object only, no prose around it:
{"mode": "<mode>", "reasoning": "<one sentence>", "scope": "<subsystem or file, or empty>"}`

// Classifier classifies questions.
type Classifier struct {
	client  llm.Client
	timeout time.Duration
}

// New creates a classifier over the given completion client.
func New(client llm.Client) *Classifier {
	return &Classifier{client: client, timeout: defaultTimeout}
}

// Classify returns a Result for the question. It never returns an error:
// completion failures, timeouts, and malformed responses all degrade to
// conceptual mode with a reasoning string noting the failure.
func (c *Classifier) Classify(ctx context.Context, question string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		User:        question,
		Temperature: classifyTemperature,
		MaxTokens:   256,
	})
	if err != nil {
		log.Printf("Warning: classification call failed, falling back to conceptual: %v", err)
		return Result{
			Mode:      ModeConceptual,
			Reasoning: fmt.Sprintf("classification unavailable (%v), defaulting to conceptual", err),
		}
	}

	return ParseResult(resp.Text)
}

// ParseResult parses the model's JSON reply. Invalid JSON or an
// unrecognized mode degrades to conceptual; it never fails.
func ParseResult(text string) Result {
	raw := stripFences(text)

	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return Result{
			Mode:      ModeConceptual,
			Reasoning: fmt.Sprintf("could not parse classification response (%v), defaulting to conceptual", err),
		}
	}

	switch res.Mode {
	case ModeDiagnostic, ModeExploratory, ModeAnalytical, ModeConceptual:
		return res
	default:
		return Result{
			Mode:      ModeConceptual,
			Reasoning: fmt.Sprintf("unrecognized classification mode %q, defaulting to conceptual", res.Mode),
			Scope:     res.Scope,
		}
	}
}

// stripFences removes a markdown code fence around the JSON payload, which
// some models add despite instructions.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
