package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/archpilot/archpilot/internal/domain"
	"github.com/archpilot/archpilot/internal/domain/chunk"
)

func TestNew_Defaults(t *testing.T) {
	q, err := New("  how to port NEON code  ", nil, 0, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text() != "how to port NEON code" {
		t.Errorf("text not trimmed: %q", q.Text())
	}
	if q.Limit() != DefaultLimit {
		t.Errorf("limit = %d, want default %d", q.Limit(), DefaultLimit)
	}
	if q.HasCategoryFilter() {
		t.Error("no filter was requested")
	}
}

func TestNew_DefaultLimitClampedToMaxResults(t *testing.T) {
	q, err := New("query", nil, 0, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Limit() != 3 {
		t.Errorf("limit = %d, want 3", q.Limit())
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		categories []chunk.Category
		limit      int
		wantErr    error
	}{
		{"empty text", "", nil, 5, domain.ErrEmptyQuery},
		{"whitespace text", "   \t\n", nil, 5, domain.ErrEmptyQuery},
		{"too long", strings.Repeat("x", MaxQueryLength+1), nil, 5, domain.ErrInvalidQuery},
		{"negative limit", "q", nil, -1, domain.ErrInvalidQuery},
		{"limit above max", "q", nil, 21, domain.ErrInvalidQuery},
		{"unknown category", "q", []chunk.Category{"bogus"}, 5, domain.ErrInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.text, tt.categories, tt.limit, 20)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			// Every rejection is an invalid-query error.
			if !errors.Is(err, domain.ErrInvalidQuery) {
				t.Errorf("error %v does not wrap ErrInvalidQuery", err)
			}
		})
	}
}

func TestMatchesCategory(t *testing.T) {
	unfiltered, err := New("q", nil, 5, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !unfiltered.MatchesCategory(chunk.Intrinsics) {
		t.Error("unfiltered query must match every category")
	}

	filtered, err := New("q", []chunk.Category{chunk.Intrinsics, chunk.CompatibilityNotes}, 5, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !filtered.MatchesCategory(chunk.Intrinsics) {
		t.Error("intrinsics should pass the filter")
	}
	if filtered.MatchesCategory(chunk.ArchitectureDocs) {
		t.Error("architecture_docs should not pass the filter")
	}
}
