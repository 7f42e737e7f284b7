// Package llm provides clients for the external completion capability.
//
// Completions are non-deterministic by contract: identical prompts may
// return different text. Callers must assert on structural properties of
// the output, never on exact strings.
package llm

import "context"

// CompletionClient is the outbound contract to the completion capability.
// Use this interface for dependency injection to enable mocking in tests.
type CompletionClient interface {
	// Complete generates a completion for the prompt. May fail with a
	// classified *Error (see ClassifyError); timeouts surface as
	// apperrors.ErrCompletionTimeout.
	Complete(ctx context.Context, prompt string, systemMessage string) (string, error)

	// CreateEmbedding generates an embedding vector for the input text.
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)

	// Model returns the configured model name.
	Model() string
}
