package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/archpilot/archpilot/internal/domain"
	searchuc "github.com/archpilot/archpilot/internal/usecase/search"
)

// KBSearch exposes the knowledge-base semantic search as a tool.
type KBSearch struct {
	svc *searchuc.Service
}

// NewKBSearch wraps a search service.
func NewKBSearch(svc *searchuc.Service) *KBSearch {
	return &KBSearch{svc: svc}
}

func (t *KBSearch) Name() string { return "knowledge_base_search" }

func (t *KBSearch) Description() string {
	return "Semantic search over the Arm architecture knowledge base. " +
		"Returns the most relevant documentation chunks for a natural-language query."
}

type kbSearchArgs struct {
	Query      string   `json:"query"`
	Category   string   `json:"category,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Limit      *int     `json:"limit,omitempty"`
}

type kbSearchHit struct {
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank"`
	Category string  `json:"category"`
	Title    string  `json:"title,omitempty"`
	URL      string  `json:"url,omitempty"`
}

type kbSearchResponse struct {
	Results []kbSearchHit `json:"results"`
}

// Run validates arguments, runs the search and flattens results into the
// response shape the assistant consumes.
func (t *KBSearch) Run(ctx context.Context, raw json.RawMessage) (any, error) {
	var args kbSearchArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	categories := args.Categories
	if args.Category != "" {
		categories = append(categories, args.Category)
	}

	// Absent limit means "use the default"; an explicit zero is a caller bug.
	limit := 0
	if args.Limit != nil {
		limit = *args.Limit
		if limit == 0 {
			return nil, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidQuery)
		}
	}

	q, err := t.svc.NewQuery(args.Query, categories, limit)
	if err != nil {
		return nil, err
	}

	results, err := t.svc.Search(ctx, &q)
	if err != nil {
		return nil, err
	}

	hits := make([]kbSearchHit, 0, len(results))
	for i := range results {
		r := &results[i]
		c := r.Chunk()
		hits = append(hits, kbSearchHit{
			Text:     c.Text(),
			Score:    r.Score(),
			Rank:     r.Rank(),
			Category: string(c.Category()),
			Title:    c.Meta().Title,
			URL:      c.Meta().URL,
		})
	}

	return kbSearchResponse{Results: hits}, nil
}
