package normalize

import "context"

// PromptStore fetches named prompt templates.
type PromptStore interface {
	Get(ctx context.Context, key string) (string, error)
}

// LLM sends a system-prompt + user-message pair to the model and returns the
// raw text plus elapsed milliseconds.
type LLM interface {
	Complete(ctx context.Context, system, user string, maxTokens int, temperature float32) (string, float64, error)
}
