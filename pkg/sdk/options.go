package archpilot

import (
	"time"

	"go.uber.org/zap"
)

type clientConfig struct {
	embedder     Embedder
	logger       *zap.Logger
	weights      map[string]float64
	dedupOverlap float64
	maxResults   int
	overscan     int
	embedTimeout time.Duration
}

// Option configures the client.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// WithEmbedder sets the query embedder. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) { c.embedder = e })
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) { c.logger = l })
}

// WithCategoryWeights overrides the per-category score boosts.
func WithCategoryWeights(weights map[string]float64) Option {
	return optionFunc(func(c *clientConfig) { c.weights = weights })
}

// WithDedupOverlap sets the span-overlap fraction above which same-document
// chunks are merged, in (0, 1].
func WithDedupOverlap(f float64) Option {
	return optionFunc(func(c *clientConfig) { c.dedupOverlap = f })
}

// WithMaxResults sets the upper bound on the per-query result limit.
func WithMaxResults(n int) Option {
	return optionFunc(func(c *clientConfig) { c.maxResults = n })
}

// WithOverscan sets the candidate pool multiplier used before dedup.
func WithOverscan(n int) Option {
	return optionFunc(func(c *clientConfig) { c.overscan = n })
}

// WithEmbedTimeout bounds the embedding call per query.
func WithEmbedTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) { c.embedTimeout = d })
}
