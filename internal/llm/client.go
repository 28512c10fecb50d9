// Package llm wraps the external text-completion capability behind a small
// interface. Callers must be able to tell authentication, rate-limit, and
// generic failures apart without depending on a provider SDK.
package llm

import "context"

// Request is one completion call.
type Request struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Response carries the completion text.
type Response struct {
	Text string
}

// Client is the text-completion capability. Implementations must return
// errors matching ErrAuth, ErrRateLimit, or a generic error so callers can
// degrade appropriately, and must honor context cancellation.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
