package resultgrid

import "github.com/kailas-cloud/resultgrid/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrSessionNotFound = domain.ErrSessionNotFound
	ErrRecordNotFound  = domain.ErrRecordNotFound
	ErrInvalidEnvelope = domain.ErrInvalidEnvelope
	ErrInvalidEdit     = domain.ErrInvalidEdit
	ErrTooManySessions = domain.ErrTooManySessions
)
