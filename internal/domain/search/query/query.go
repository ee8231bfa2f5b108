package query

import (
	"fmt"
	"strings"

	"github.com/archpilot/archpilot/internal/domain"
	"github.com/archpilot/archpilot/internal/domain/chunk"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	// DefaultLimit is the result count used when the caller does not ask for one.
	DefaultLimit = 5
	// DefaultMaxResults bounds the result count when config leaves it unset.
	DefaultMaxResults = 20
)

// Query is a validated knowledge-base search request.
type Query struct {
	text       string
	categories []chunk.Category
	limit      int
}

// New validates and normalizes search parameters. Text is trimmed and must be
// non-empty; limit must lie in [1, maxResults] (0 means "use the default").
// maxResults <= 0 falls back to DefaultMaxResults.
func New(text string, categories []chunk.Category, limit, maxResults int) (Query, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, domain.ErrEmptyQuery)
	}
	if len(text) > MaxQueryLength {
		return Query{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}

	if limit == 0 {
		limit = DefaultLimit
		if limit > maxResults {
			limit = maxResults
		}
	}
	if limit < 1 || limit > maxResults {
		return Query{}, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidQuery, maxResults)
	}

	for _, c := range categories {
		if !c.IsValid() {
			return Query{}, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidQuery, c)
		}
	}

	return Query{text: text, categories: categories, limit: limit}, nil
}

// Text returns the trimmed query text.
func (q *Query) Text() string { return q.text }

// Categories returns the requested category filter (empty means no filter).
func (q *Query) Categories() []chunk.Category { return q.categories }

// Limit returns the maximum results to return.
func (q *Query) Limit() int { return q.limit }

// HasCategoryFilter reports whether a category filter was requested.
func (q *Query) HasCategoryFilter() bool { return len(q.categories) > 0 }

// MatchesCategory reports whether cat passes the filter.
func (q *Query) MatchesCategory(cat chunk.Category) bool {
	if len(q.categories) == 0 {
		return true
	}
	for _, c := range q.categories {
		if c == cat {
			return true
		}
	}
	return false
}
