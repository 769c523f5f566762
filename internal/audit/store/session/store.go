package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"formtrail/internal/audit/models"
)

// Store keeps live session state: tracking flags, last-known location and the
// one open interval event. State is small and mutable, so multi-instance
// deployments back it with Redis.
type Store interface {
	Create(ctx context.Context, sess *models.Session) error
	Find(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Save(ctx context.Context, sess *models.Session) error
	// ListIdle returns the IDs of open sessions not touched since before.
	ListIdle(ctx context.Context, before time.Time) ([]uuid.UUID, error)
}
