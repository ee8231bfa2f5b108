package result

import "github.com/archpilot/archpilot/internal/domain/chunk"

// Result is a single ranked search hit. It references exactly one chunk and
// lives only for the duration of the response being built.
type Result struct {
	chunk chunk.Chunk
	score float64
	rank  int
}

// New creates a search result.
func New(c chunk.Chunk, score float64, rank int) Result {
	return Result{chunk: c, score: score, rank: rank}
}

// Chunk returns the referenced chunk.
func (r *Result) Chunk() *chunk.Chunk { return &r.chunk }

// Score returns the boosted relevance score.
func (r *Result) Score() float64 { return r.score }

// Rank returns the 1-based rank position.
func (r *Result) Rank() int { return r.rank }
