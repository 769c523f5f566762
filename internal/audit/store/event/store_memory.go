package event

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"formtrail/internal/audit/models"
)

// InMemory keeps events per session in arrival order. Used in tests and in
// single-instance deployments without Postgres.
type InMemory struct {
	mu     sync.RWMutex
	events map[uuid.UUID][]models.Snapshot
}

func NewInMemory() *InMemory {
	return &InMemory{events: make(map[uuid.UUID][]models.Snapshot)}
}

func (s *InMemory) Append(_ context.Context, sessionID uuid.UUID, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[sessionID] = append(s.events[sessionID], snap)
	return nil
}

func (s *InMemory) ListBySession(_ context.Context, sessionID uuid.UUID) ([]models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Snapshot{}, s.events[sessionID]...), nil
}

func (s *InMemory) CountBySession(_ context.Context, sessionID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events[sessionID]), nil
}

// Clear drops all stored events. Test helper.
func (s *InMemory) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[uuid.UUID][]models.Snapshot)
}
