package event

import (
	"context"

	"github.com/google/uuid"

	"formtrail/internal/audit/models"
)

// Store is the append-only persistence seam for closed audit events. Events
// must come back from ListBySession in arrival order.
type Store interface {
	Append(ctx context.Context, sessionID uuid.UUID, snap models.Snapshot) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Snapshot, error)
	CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error)
}
