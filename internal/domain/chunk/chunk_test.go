package chunk

import "testing"

func mustChunk(t *testing.T, id, docID string, start, end int) Chunk {
	t.Helper()
	c, err := New(id, ArchitectureDocs, "text", []float32{1, 0}, Metadata{
		DocID:     docID,
		SpanStart: start,
		SpanEnd:   end,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		category Category
		vector   []float32
		meta     Metadata
	}{
		{"empty id", "", ArchitectureDocs, []float32{1}, Metadata{}},
		{"unknown category", "c1", Category("bogus"), []float32{1}, Metadata{}},
		{"empty vector", "c1", ArchitectureDocs, nil, Metadata{}},
		{"inverted span", "c1", ArchitectureDocs, []float32{1}, Metadata{SpanStart: 10, SpanEnd: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.id, tt.category, "text", tt.vector, tt.meta); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(string(c))
		if err != nil {
			t.Fatalf("ParseCategory(%q): %v", c, err)
		}
		if got != c {
			t.Errorf("ParseCategory(%q) = %q", c, got)
		}
	}

	if _, err := ParseCategory("no_such_category"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestSameDocument(t *testing.T) {
	a := mustChunk(t, "a", "doc-1", 0, 100)
	b := mustChunk(t, "b", "doc-1", 50, 150)
	c := mustChunk(t, "c", "doc-2", 0, 100)
	noDoc1 := mustChunk(t, "d", "", 0, 100)
	noDoc2 := mustChunk(t, "e", "", 0, 100)

	if !a.SameDocument(&b) {
		t.Error("a and b share a doc_id")
	}
	if a.SameDocument(&c) {
		t.Error("a and c are from different documents")
	}
	// Chunks without a doc_id never dedup against each other.
	if noDoc1.SameDocument(&noDoc2) {
		t.Error("chunks without doc_id must not match")
	}
}

func TestSpanOverlap(t *testing.T) {
	tests := []struct {
		name           string
		aStart, aEnd   int
		bStart, bEnd   int
		want           float64
	}{
		{"identical", 0, 100, 0, 100, 1.0},
		{"half of shorter", 0, 100, 50, 150, 0.5},
		{"disjoint", 0, 100, 100, 200, 0},
		{"contained", 0, 100, 20, 40, 1.0},
		{"zero-length span", 50, 50, 0, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustChunk(t, "a", "d", tt.aStart, tt.aEnd)
			b := mustChunk(t, "b", "d", tt.bStart, tt.bEnd)
			if got := a.SpanOverlap(&b); got != tt.want {
				t.Errorf("SpanOverlap = %v, want %v", got, tt.want)
			}
			// Overlap is symmetric.
			if got := b.SpanOverlap(&a); got != tt.want {
				t.Errorf("reverse SpanOverlap = %v, want %v", got, tt.want)
			}
		})
	}
}
