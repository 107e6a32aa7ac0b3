// Package llm wraps the external generative-text service behind a Provider
// interface. Callers own timeouts via ctx; a failed call is surfaced as an
// error and never retried here.
package llm

import "context"

// Provider defines the interface for generative-text backends.
type Provider interface {
	// Generate sends a generation request and returns the response.
	Generate(ctx context.Context, req Request) (*Response, error)
	// Name returns the name of this provider.
	Name() string
}
