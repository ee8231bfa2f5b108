package chunk

import (
	"fmt"
	"time"
)

// Metadata holds optional structured metadata attached to a chunk.
// DocID groups chunks cut from the same source document; SpanStart/SpanEnd
// are byte offsets of the chunk within that document and drive dedup.
type Metadata struct {
	Title     string
	URL       string
	DocID     string
	Tags      []string
	SpanStart int
	SpanEnd   int
	UpdatedAt time.Time
}

// Chunk is an immutable unit of indexed knowledge: a text span with its
// embedding vector and source metadata.
type Chunk struct {
	id       string
	category Category
	text     string
	vector   []float32
	meta     Metadata
}

// New validates and creates a chunk.
func New(id string, category Category, text string, vector []float32, meta Metadata) (Chunk, error) {
	if id == "" {
		return Chunk{}, fmt.Errorf("chunk id is required")
	}
	if !category.IsValid() {
		return Chunk{}, fmt.Errorf("chunk %s: unknown category %q", id, category)
	}
	if len(vector) == 0 {
		return Chunk{}, fmt.Errorf("chunk %s: vector is required", id)
	}
	if meta.SpanEnd < meta.SpanStart {
		return Chunk{}, fmt.Errorf("chunk %s: span end %d before start %d", id, meta.SpanEnd, meta.SpanStart)
	}
	return Chunk{id: id, category: category, text: text, vector: vector, meta: meta}, nil
}

// ID returns the stable chunk identifier.
func (c *Chunk) ID() string { return c.id }

// Category returns the source category.
func (c *Chunk) Category() Category { return c.category }

// Text returns the raw chunk text.
func (c *Chunk) Text() string { return c.text }

// Vector returns the embedding vector. Callers must not modify it.
func (c *Chunk) Vector() []float32 { return c.vector }

// Meta returns the chunk metadata.
func (c *Chunk) Meta() Metadata { return c.meta }

// SameDocument reports whether two chunks were cut from the same source
// document. Chunks without a DocID are never considered the same document.
func (c *Chunk) SameDocument(other *Chunk) bool {
	return c.meta.DocID != "" && c.meta.DocID == other.meta.DocID
}

// SpanOverlap returns the fraction of the shorter span covered by the
// overlap of the two chunks' spans, in [0, 1]. Zero-length spans never overlap.
func (c *Chunk) SpanOverlap(other *Chunk) float64 {
	lo := max(c.meta.SpanStart, other.meta.SpanStart)
	hi := min(c.meta.SpanEnd, other.meta.SpanEnd)
	if hi <= lo {
		return 0
	}
	shorter := min(c.meta.SpanEnd-c.meta.SpanStart, other.meta.SpanEnd-other.meta.SpanStart)
	if shorter <= 0 {
		return 0
	}
	return float64(hi-lo) / float64(shorter)
}
