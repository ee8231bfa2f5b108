package archpilot

import (
	"context"
	"time"
)

// EmbeddingResult is the outcome of embedding a text.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder produces query vectors. ModelID must identify the embedding model
// so it can be checked against the one recorded in the artifact.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
	ModelID() string
}

// Result is one ranked search hit.
type Result struct {
	Text     string
	Score    float64
	Rank     int
	Category string
	Title    string
	URL      string
	Tags     []string
	DocID    string
}

// SearchOptions narrows a single search call. The zero value means
// "default limit, no category filter".
type SearchOptions struct {
	// Categories restricts results to the named source categories.
	Categories []string
	// Limit caps the number of results; 0 means the default.
	Limit int
}

// IndexInfo describes the loaded artifact.
type IndexInfo struct {
	Chunks    int
	Dimension int
	ModelID   string
	LoadedAt  time.Time
}
