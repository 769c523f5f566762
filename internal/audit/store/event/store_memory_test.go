package event

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"formtrail/internal/audit/models"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) TestAppendPreservesArrivalOrder() {
	sessionID := uuid.New()
	for i, kind := range []models.Kind{models.KindFormStart, models.KindQuestion, models.KindFormSave} {
		snap := models.Snapshot{Kind: kind, Start: int64(i + 1)}
		s.Require().NoError(s.store.Append(s.ctx, sessionID, snap))
	}

	snaps, err := s.store.ListBySession(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Require().Len(snaps, 3)
	s.Equal(models.KindFormStart, snaps[0].Kind)
	s.Equal(models.KindQuestion, snaps[1].Kind)
	s.Equal(models.KindFormSave, snaps[2].Kind)
}

func (s *MemoryStoreSuite) TestSessionsAreIsolated() {
	first := uuid.New()
	second := uuid.New()
	s.Require().NoError(s.store.Append(s.ctx, first, models.Snapshot{Kind: models.KindFormStart, Start: 1}))

	count, err := s.store.CountBySession(s.ctx, second)
	s.Require().NoError(err)
	s.Zero(count)

	count, err = s.store.CountBySession(s.ctx, first)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *MemoryStoreSuite) TestListReturnsACopy() {
	sessionID := uuid.New()
	s.Require().NoError(s.store.Append(s.ctx, sessionID, models.Snapshot{Kind: models.KindFormStart, Start: 1}))

	snaps, err := s.store.ListBySession(s.ctx, sessionID)
	s.Require().NoError(err)
	snaps[0].Kind = models.KindFormExit

	again, err := s.store.ListBySession(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Equal(models.KindFormStart, again[0].Kind)
}

func (s *MemoryStoreSuite) TestUnknownSessionListsEmpty() {
	snaps, err := s.store.ListBySession(s.ctx, uuid.New())
	s.Require().NoError(err)
	s.Empty(snaps)
}
