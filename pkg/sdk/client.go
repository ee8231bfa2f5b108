package archpilot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/archpilot/archpilot/internal/domain"
	"github.com/archpilot/archpilot/internal/domain/chunk"
	"github.com/archpilot/archpilot/internal/index"
	"github.com/archpilot/archpilot/internal/similarity"
	searchuc "github.com/archpilot/archpilot/internal/usecase/search"
)

// Client is the embedded archpilot search client.
type Client struct {
	store    *index.Store
	engine   *similarity.Engine
	svc      *searchuc.Service
	loadedAt time.Time
}

// New loads the index artifact at path and wires the search pipeline.
// The artifact is read once; the client is safe for concurrent use.
func New(_ context.Context, path string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.embedder == nil {
		return nil, errors.New("archpilot: embedder required (use WithEmbedder)")
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	store, err := index.Load(path)
	if err != nil {
		return nil, fmt.Errorf("archpilot: load artifact: %w", err)
	}

	if cfg.embedder.ModelID() != store.ModelID() {
		return nil, fmt.Errorf("archpilot: embedder model %q, artifact model %q: %w",
			cfg.embedder.ModelID(), store.ModelID(), domain.ErrModelMismatch)
	}

	engine, err := similarity.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("archpilot: %w", err)
	}

	var svcOpts []searchuc.Option
	if rc, ok := rankConfigFromOptions(cfg); ok {
		svcOpts = append(svcOpts, searchuc.WithRankConfig(rc))
	}
	if cfg.maxResults > 0 {
		svcOpts = append(svcOpts, searchuc.WithMaxResults(cfg.maxResults))
	}
	if cfg.overscan > 0 {
		svcOpts = append(svcOpts, searchuc.WithOverscan(cfg.overscan))
	}
	if cfg.embedTimeout > 0 {
		svcOpts = append(svcOpts, searchuc.WithEmbedTimeout(cfg.embedTimeout))
	}

	svc := searchuc.New(store, &embedderAdapter{inner: cfg.embedder}, engine, cfg.logger, svcOpts...)

	return &Client{
		store:    store,
		engine:   engine,
		svc:      svc,
		loadedAt: time.Now(),
	}, nil
}

// Close releases the scoring pool.
func (c *Client) Close() {
	if c.engine != nil {
		c.engine.Release()
	}
}

// Index describes the loaded artifact.
func (c *Client) Index() IndexInfo {
	return IndexInfo{
		Chunks:    c.store.Len(),
		Dimension: c.store.Dimension(),
		ModelID:   c.store.ModelID(),
		LoadedAt:  c.loadedAt,
	}
}

// Search runs one semantic search. opts can be nil.
func (c *Client) Search(ctx context.Context, text string, opts *SearchOptions) ([]Result, error) {
	var categories []string
	limit := 0
	if opts != nil {
		categories = opts.Categories
		limit = opts.Limit
	}

	q, err := c.svc.NewQuery(text, categories, limit)
	if err != nil {
		return nil, err
	}

	results, err := c.svc.Search(ctx, &q)
	if err != nil {
		return nil, err
	}

	out := make([]Result, len(results))
	for i := range results {
		r := &results[i]
		ch := r.Chunk()
		meta := ch.Meta()
		out[i] = Result{
			Text:     ch.Text(),
			Score:    r.Score(),
			Rank:     r.Rank(),
			Category: string(ch.Category()),
			Title:    meta.Title,
			URL:      meta.URL,
			Tags:     meta.Tags,
			DocID:    meta.DocID,
		}
	}
	return out, nil
}

func rankConfigFromOptions(cfg *clientConfig) (searchuc.RankConfig, bool) {
	if len(cfg.weights) == 0 && cfg.dedupOverlap <= 0 {
		return searchuc.RankConfig{}, false
	}
	rc := searchuc.DefaultRankConfig()
	if len(cfg.weights) > 0 {
		weights := make(map[chunk.Category]float64, len(cfg.weights))
		for name, w := range cfg.weights {
			weights[chunk.Category(name)] = w
		}
		rc.Weights = weights
	}
	if cfg.dedupOverlap > 0 {
		rc.DedupOverlap = cfg.dedupOverlap
	}
	return rc, true
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) ModelID() string { return a.inner.ModelID() }

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
