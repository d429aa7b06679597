package providers

import (
	"context"
	"errors"
)

// ErrNarrativeUnavailable is returned when no narrative provider is configured.
var ErrNarrativeUnavailable = errors.New("narrative provider not configured")

// NarrativeRequest is a single generation request.
type NarrativeRequest struct {
	System          string
	Prompt          string
	Temperature     float64
	MaxOutputTokens int
}

// NarrativeProvider generates free-text commentary from a prompt.
// Implementations wrap non-retryable failures with retry.Permanent.
type NarrativeProvider interface {
	// Name identifies the provider in logs and events
	Name() string

	// Generate returns the generated text
	Generate(ctx context.Context, req NarrativeRequest) (string, error)
}
