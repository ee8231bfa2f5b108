package search

import (
	"sort"

	"github.com/archpilot/archpilot/internal/domain/chunk"
	"github.com/archpilot/archpilot/internal/domain/search/query"
	"github.com/archpilot/archpilot/internal/domain/search/result"
	"github.com/archpilot/archpilot/internal/similarity"
)

// RankConfig is the static ranking policy: per-category score weights and the
// span-overlap fraction above which same-document chunks are merged.
type RankConfig struct {
	Weights      map[chunk.Category]float64
	DedupOverlap float64
}

// DefaultRankConfig returns the default profile: intrinsics matches tend to
// be high-precision and get a 1.1x boost.
func DefaultRankConfig() RankConfig {
	return RankConfig{
		Weights: map[chunk.Category]float64{
			chunk.ArchitectureDocs:   1.0,
			chunk.LearningResources:  1.0,
			chunk.Intrinsics:         1.1,
			chunk.CompatibilityNotes: 1.0,
		},
		DedupOverlap: 0.5,
	}
}

func (c RankConfig) weight(cat chunk.Category) float64 {
	if w, ok := c.Weights[cat]; ok {
		return w
	}
	return 1.0
}

// rank turns raw similarity candidates into the final ordered result list:
// category filter, per-category boost, same-document overlap dedup, sort by
// boosted score descending (chunk ID ascending tie-break), truncate to the
// query limit. Pure function of its inputs and the static config.
func rank(candidates []similarity.Scored, q *query.Query, cfg RankConfig) []result.Result {
	boosted := make([]similarity.Scored, 0, len(candidates))
	for _, c := range candidates {
		if !q.MatchesCategory(c.Chunk.Category()) {
			continue
		}
		boosted = append(boosted, similarity.Scored{
			Chunk: c.Chunk,
			Score: c.Score * cfg.weight(c.Chunk.Category()),
		})
	}

	sort.Slice(boosted, func(i, j int) bool {
		if boosted[i].Score != boosted[j].Score {
			return boosted[i].Score > boosted[j].Score
		}
		return boosted[i].Chunk.ID() < boosted[j].Chunk.ID()
	})

	// Dedup after sorting: the first chunk seen from an overlapping span is
	// the highest-scoring one, so later duplicates are simply dropped.
	kept := boosted[:0]
	for i := range boosted {
		if isDuplicate(&boosted[i].Chunk, kept, cfg.DedupOverlap) {
			continue
		}
		kept = append(kept, boosted[i])
		if len(kept) == q.Limit() {
			break
		}
	}

	results := make([]result.Result, len(kept))
	for i, c := range kept {
		results[i] = result.New(c.Chunk, c.Score, i+1)
	}
	return results
}

func isDuplicate(c *chunk.Chunk, kept []similarity.Scored, overlap float64) bool {
	for i := range kept {
		k := &kept[i].Chunk
		if c.SameDocument(k) && c.SpanOverlap(k) >= overlap {
			return true
		}
	}
	return false
}
