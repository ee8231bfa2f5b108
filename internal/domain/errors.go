package domain

import "errors"

var (
	// ErrArtifactCorrupt signals an unreadable or unrecognized index artifact.
	ErrArtifactCorrupt = errors.New("artifact corrupt")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrModelMismatch signals that the artifact and the embedder disagree on the embedding model.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrEmbeddingUnavailable signals an unreachable or failing embedding provider.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrEmbeddingTimeout signals an embedding call that exceeded its deadline.
	ErrEmbeddingTimeout = errors.New("embedding timeout")
	// ErrEmptyQuery signals query text that is empty after trimming.
	ErrEmptyQuery = errors.New("empty query")
	// ErrInvalidQuery signals invalid search parameters.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrNotReady signals that the index store has not finished loading.
	ErrNotReady = errors.New("index not ready")
	// ErrUnknownTool signals a tool name missing from the dispatch table.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArgument signals tool arguments that fail schema validation.
	ErrInvalidArgument = errors.New("invalid argument")
)
