package analyst

import (
	"context"
	"fmt"

	"github.com/wang2-lat/my-personal-bloomberg/internal/usecase/assess"
)

// Backend names accepted by New.
const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
	BackendClaude = "claude"
)

// New creates the analyst for the named backend.
//
// Parameters:
//   - backend: one of "gemini", "openai", "claude"
//   - apiKey: the credential for that backend
func New(ctx context.Context, backend, apiKey string) (assess.Analyst, error) {
	switch backend {
	case BackendGemini:
		return NewGemini(ctx, apiKey)
	case BackendOpenAI:
		return NewOpenAI(apiKey), nil
	case BackendClaude:
		return NewClaude(apiKey), nil
	default:
		return nil, fmt.Errorf("unknown analyst backend: %q", backend)
	}
}
