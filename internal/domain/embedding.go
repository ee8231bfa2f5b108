package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
// ModelID reports the provider model identifier so the startup readiness
// check can compare it against the one recorded in the index artifact.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
	ModelID() string
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
