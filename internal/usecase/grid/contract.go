package grid

import (
	"context"

	"github.com/kailas-cloud/resultgrid/internal/domain/session"
)

// SessionStore defines the storage contract for grid sessions.
type SessionStore interface {
	Create(ctx context.Context) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Delete(ctx context.Context, id string) error
	Len() int
}
