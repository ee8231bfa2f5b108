package similarity

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/archpilot/archpilot/internal/domain/chunk"
)

// parallelThreshold is the store size below which a serial scan beats the
// pool dispatch overhead.
const parallelThreshold = 2048

// Scored pairs a chunk with its raw similarity score.
type Scored struct {
	Chunk chunk.Chunk
	Score float64
}

// Engine scores a query vector against chunk sets. Large scans fan out over
// a shared goroutine pool; results are index-addressed so the output is
// deterministic regardless of scheduling.
type Engine struct {
	pool *ants.Pool
}

// NewEngine creates an engine backed by a worker pool sized to the host.
func NewEngine() (*Engine, error) {
	pool, err := ants.NewPool(runtime.GOMAXPROCS(0))
	if err != nil {
		return nil, fmt.Errorf("create scoring pool: %w", err)
	}
	return &Engine{pool: pool}, nil
}

// Release frees the worker pool.
func (e *Engine) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// TopK scores every chunk against query and returns the k highest-scoring
// chunks, ordered by score descending with chunk ID ascending as tie-break.
// k must be positive; k larger than the chunk set returns everything.
func (e *Engine) TopK(query []float32, chunks []chunk.Chunk, k int) ([]Scored, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	scores := make([]float64, len(chunks))
	if err := e.scoreAll(query, chunks, scores); err != nil {
		return nil, err
	}

	scored := make([]Scored, len(chunks))
	for i := range chunks {
		scored[i] = Scored{Chunk: chunks[i], Score: scores[i]}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID() < scored[j].Chunk.ID()
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// scoreAll fills scores[i] with the similarity of query to chunks[i].
func (e *Engine) scoreAll(query []float32, chunks []chunk.Chunk, scores []float64) error {
	if e.pool == nil || len(chunks) < parallelThreshold {
		return scoreRange(query, chunks, scores, 0, len(chunks))
	}

	workers := e.pool.Cap()
	shard := (len(chunks) + workers - 1) / workers

	var wg sync.WaitGroup
	errs := make([]error, workers)

	for w := 0; w < workers; w++ {
		lo := w * shard
		if lo >= len(chunks) {
			break
		}
		hi := min(lo+shard, len(chunks))

		wg.Add(1)
		w := w
		submitErr := e.pool.Submit(func() {
			defer wg.Done()
			errs[w] = scoreRange(query, chunks, scores, lo, hi)
		})
		if submitErr != nil {
			// Pool saturated or released: score the shard inline.
			errs[w] = scoreRange(query, chunks, scores, lo, hi)
			wg.Done()
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func scoreRange(query []float32, chunks []chunk.Chunk, scores []float64, lo, hi int) error {
	for i := lo; i < hi; i++ {
		s, err := Cosine(query, chunks[i].Vector())
		if err != nil {
			return fmt.Errorf("score chunk %s: %w", chunks[i].ID(), err)
		}
		scores[i] = s
	}
	return nil
}
