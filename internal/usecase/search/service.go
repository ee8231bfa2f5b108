// Package search is the single public entry point of the knowledge-base
// semantic search core: it validates queries, embeds them, scores the store
// and ranks the candidates.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/archpilot/archpilot/internal/domain"
	"github.com/archpilot/archpilot/internal/domain/chunk"
	"github.com/archpilot/archpilot/internal/domain/search/query"
	"github.com/archpilot/archpilot/internal/domain/search/result"
	"github.com/archpilot/archpilot/internal/metrics"
)

// DefaultEmbedTimeout bounds the external embedding call when no timeout is configured.
const DefaultEmbedTimeout = 5 * time.Second

// Service orchestrates embed -> topK -> rank. Stateless per call; the loaded
// store is the only persistent state and is never written after startup.
type Service struct {
	store        ChunkSource
	embed        domain.Embedder
	scorer       Scorer
	rankCfg      RankConfig
	maxResults   int
	overscan     int
	embedTimeout time.Duration
	logger       *zap.Logger
}

// Option configures the service.
type Option func(*Service)

// WithRankConfig overrides the default ranking policy.
func WithRankConfig(cfg RankConfig) Option {
	return func(s *Service) { s.rankCfg = cfg }
}

// WithMaxResults overrides the upper bound on the per-query result limit.
func WithMaxResults(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithOverscan sets the candidate pool multiplier: topK fetches
// limit*overscan candidates so dedup has material to drop.
func WithOverscan(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.overscan = n
		}
	}
}

// WithEmbedTimeout bounds the external embedding call.
func WithEmbedTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.embedTimeout = d
		}
	}
}

// New creates a search service over a loaded store.
func New(store ChunkSource, embed domain.Embedder, scorer Scorer, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:        store,
		embed:        embed,
		scorer:       scorer,
		rankCfg:      DefaultRankConfig(),
		maxResults:   query.DefaultMaxResults,
		overscan:     4,
		embedTimeout: DefaultEmbedTimeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxResults returns the upper bound on the per-query result limit.
func (s *Service) MaxResults() int { return s.maxResults }

// NewQuery validates raw parameters against this service's limits.
func (s *Service) NewQuery(text string, categories []string, limit int) (query.Query, error) {
	cats, err := parseCategories(categories)
	if err != nil {
		return query.Query{}, err
	}
	return query.New(text, cats, limit, s.maxResults)
}

// Search runs one knowledge-base search. Per-call errors (embedding failures,
// timeouts) are returned to the caller; the store is never touched on error.
func (s *Service) Search(ctx context.Context, q *query.Query) ([]result.Result, error) {
	start := time.Now()

	results, err := s.search(ctx, q)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(status).Inc()
	metrics.SearchDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.SearchResults.Observe(float64(len(results)))
	}

	return results, err
}

func (s *Service) search(ctx context.Context, q *query.Query) ([]result.Result, error) {
	if s.store == nil {
		return nil, domain.ErrNotReady
	}

	embedStart := time.Now()
	embCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	embResult, err := s.embed.Embed(embCtx, q.Text())
	metrics.SearchDuration.WithLabelValues("embed").Observe(time.Since(embedStart).Seconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("vectorize query: %w", domain.ErrEmbeddingTimeout)
		}
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	if len(embResult.Embedding) != s.store.Dimension() {
		return nil, fmt.Errorf("query vector has %d dims, index has %d: %w",
			len(embResult.Embedding), s.store.Dimension(), domain.ErrVectorDimMismatch)
	}

	scoreStart := time.Now()
	candidates, err := s.scorer.TopK(embResult.Embedding, s.store.Chunks(), s.candidateK(q))
	metrics.SearchDuration.WithLabelValues("score").Observe(time.Since(scoreStart).Seconds())
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}

	return rank(candidates, q, s.rankCfg), nil
}

// candidateK sizes the raw candidate pool. A category filter is applied after
// scoring, so a filtered query scans the whole store to guarantee the limit
// can be met; unfiltered queries overscan by a fixed factor for dedup slack.
func (s *Service) candidateK(q *query.Query) int {
	if q.HasCategoryFilter() {
		return s.store.Len()
	}
	k := q.Limit() * s.overscan
	if k > s.store.Len() {
		k = s.store.Len()
	}
	if k < q.Limit() {
		k = q.Limit()
	}
	return k
}

func parseCategories(raw []string) ([]chunk.Category, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	cats := make([]chunk.Category, 0, len(raw))
	for _, r := range raw {
		c, err := chunk.ParseCategory(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
		}
		cats = append(cats, c)
	}
	return cats, nil
}
