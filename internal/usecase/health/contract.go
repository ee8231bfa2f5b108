package health

import "context"

// IndexReader reports the state of the loaded index store.
type IndexReader interface {
	Len() int
	ModelID() string
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
