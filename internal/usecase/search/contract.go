package search

import (
	"github.com/archpilot/archpilot/internal/domain/chunk"
	"github.com/archpilot/archpilot/internal/similarity"
)

// ChunkSource is the read-only view of the loaded index store.
type ChunkSource interface {
	Chunks() []chunk.Chunk
	Len() int
	Dimension() int
}

// Scorer selects the top-k chunks for a query vector.
type Scorer interface {
	TopK(query []float32, chunks []chunk.Chunk, k int) ([]similarity.Scored, error)
}
