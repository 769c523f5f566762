package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"formtrail/internal/audit/models"
	"formtrail/pkg/platform/sentinel"
)

// InMemory keeps session state in a mutex-guarded map. Sessions are stored by
// value so callers cannot mutate shared state behind the store's back.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]models.Session
}

func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[uuid.UUID]models.Session)}
}

func (s *InMemory) Create(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return sentinel.ErrConflict
	}
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *InMemory) Find(_ context.Context, id uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := sess
	if sess.Open != nil {
		open := *sess.Open
		copied.Open = &open
	}
	return &copied, nil
}

func (s *InMemory) Save(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *InMemory) ListIdle(_ context.Context, before time.Time) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []uuid.UUID
	for id, sess := range s.sessions {
		if !sess.Closed && sess.TouchedAt.Before(before) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
