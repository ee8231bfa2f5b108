// Package index loads the pre-built embedding index artifact and exposes it
// as an immutable in-memory store. The artifact is produced offline; the
// store never mutates after Load, so concurrent readers need no locking.
package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/archpilot/archpilot/internal/domain/chunk"
)

// Store holds every indexed chunk. Immutable after Load.
type Store struct {
	chunks  []chunk.Chunk
	dim     int
	modelID string
}

// Load reads the artifact at path in a single pass and builds the store.
// Fails with domain.ErrArtifactCorrupt on format problems and
// domain.ErrVectorDimMismatch on non-uniform vector lengths.
func Load(path string) (*Store, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open artifact %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	hdr, chunks, err := readArtifact(f)
	if err != nil {
		return nil, fmt.Errorf("load artifact %s: %w", path, err)
	}

	return &Store{
		chunks:  chunks,
		dim:     hdr.Dimension,
		modelID: hdr.EmbeddingModelID,
	}, nil
}

// Chunks returns the full chunk set. The slice is shared and read-only;
// callers may range over it any number of times with independent cursors.
func (s *Store) Chunks() []chunk.Chunk { return s.chunks }

// Len returns the number of chunks in the store.
func (s *Store) Len() int { return len(s.chunks) }

// Dimension returns the vector dimensionality fixed at index-build time.
func (s *Store) Dimension() int { return s.dim }

// ModelID returns the embedding model identifier recorded in the artifact.
func (s *Store) ModelID() string { return s.modelID }
