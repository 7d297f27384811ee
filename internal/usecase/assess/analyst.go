// Package assess turns a news item plus its market snapshot into a scored
// AI assessment. The AI backend is pluggable; everything around it (prompt
// construction, response parsing, defaults) is backend-agnostic. Assess
// never propagates an error: any failure degrades to the neutral default
// assessment so delivery always proceeds.
package assess

import "context"

// Analyst is a pluggable AI backend. Implementations wrap one vendor SDK
// and return the raw completion text for a prompt.
type Analyst interface {
	// Name identifies the backend for logging and metrics.
	Name() string

	// Analyze sends the prompt and returns the raw response text.
	Analyze(ctx context.Context, prompt string) (string, error)
}
