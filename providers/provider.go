// Package providers implements transcript acquisition. Each provider is
// one way of getting a transcript for a video; the chain tries them in
// configured order, cheapest and most reliable first, until one works.
package providers

import (
	"context"
	"fmt"
)

// VideoRef identifies one video to every provider.
type VideoRef struct {
	VideoID string
	URL     string
}

// Provider fetches a transcript for a video or reports why it couldn't.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, video VideoRef) (string, error)
}

// AttemptResult records the outcome of a single provider attempt. It
// lives only for one chain run and is never persisted.
type AttemptResult struct {
	ProviderName  string
	Succeeded     bool
	Transcript    string
	FailureReason string
}

// ChainError is returned when every provider in the chain has failed.
// The per-provider reasons are diagnostics for logs, not for end users.
type ChainError struct {
	Attempts []AttemptResult
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("all %d transcript providers failed", len(e.Attempts))
}

// Reasons returns the failure reason of every attempt, in chain order.
func (e *ChainError) Reasons() []string {
	reasons := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		reasons = append(reasons, fmt.Sprintf("%s: %s", a.ProviderName, a.FailureReason))
	}
	return reasons
}
