package llm

import "errors"

// Failure categories surfaced by every Client implementation. Wrap these
// with %w so errors.Is works across the boundary.
var (
	// ErrAuth indicates an authentication or authorization failure.
	ErrAuth = errors.New("llm: authentication failed")

	// ErrRateLimit indicates the provider rejected the call for quota.
	ErrRateLimit = errors.New("llm: rate limited")
)
