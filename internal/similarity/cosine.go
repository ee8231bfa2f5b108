// Package similarity scores query vectors against stored chunk vectors and
// selects the top-K candidates.
package similarity

import (
	"fmt"
	"math"

	"github.com/archpilot/archpilot/internal/domain"
)

// Cosine computes cosine similarity between two vectors, in [-1, 1].
// A zero-magnitude vector scores 0 against everything instead of dividing
// by zero. Fails with domain.ErrVectorDimMismatch on length mismatch.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrVectorDimMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp accumulated float error so callers can rely on the [-1, 1] contract.
	return math.Max(-1, math.Min(1, score)), nil
}
