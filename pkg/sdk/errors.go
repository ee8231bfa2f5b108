package archpilot

import "github.com/archpilot/archpilot/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrArtifactCorrupt      = domain.ErrArtifactCorrupt
	ErrVectorDimMismatch    = domain.ErrVectorDimMismatch
	ErrModelMismatch        = domain.ErrModelMismatch
	ErrEmbeddingUnavailable = domain.ErrEmbeddingUnavailable
	ErrEmbeddingTimeout     = domain.ErrEmbeddingTimeout
	ErrEmptyQuery           = domain.ErrEmptyQuery
	ErrInvalidQuery         = domain.ErrInvalidQuery
)
