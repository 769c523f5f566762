//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"formtrail/internal/audit/models"
	"formtrail/internal/audit/store/session"
	"formtrail/pkg/platform/sentinel"
	"formtrail/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.Redis
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = session.NewRedis(s.redis.Client, time.Hour)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) newSession() *models.Session {
	return &models.Session{
		ID:        uuid.New(),
		FormID:    "household-survey",
		TouchedAt: time.Now(),
	}
}

func (s *RedisStoreSuite) TestCreateAndFind() {
	ctx := context.Background()

	sess := s.newSession()
	sess.TrackChanges = true
	snap := models.Snapshot{Kind: models.KindQuestion, Start: 2000, NodePath: "/data/q1"}
	sess.Open = &snap

	s.Require().NoError(s.store.Create(ctx, sess))

	found, err := s.store.Find(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.FormID, found.FormID)
	s.True(found.TrackChanges)
	s.Require().NotNil(found.Open)
	s.Equal(models.KindQuestion, found.Open.Kind)

	s.Run("unknown ID returns ErrNotFound", func() {
		_, err := s.store.Find(ctx, uuid.New())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("duplicate create conflicts", func() {
		s.Require().ErrorIs(s.store.Create(ctx, sess), sentinel.ErrConflict)
	})
}

func (s *RedisStoreSuite) TestSave() {
	ctx := context.Background()

	s.Run("persists mutations", func() {
		sess := s.newSession()
		s.Require().NoError(s.store.Create(ctx, sess))

		sess.Latitude = "54.3"
		sess.Longitude = "18.6"
		sess.Accuracy = "5"
		s.Require().NoError(s.store.Save(ctx, sess))

		found, err := s.store.Find(ctx, sess.ID)
		s.Require().NoError(err)
		s.True(found.HasLocation())
	})

	s.Run("rejects saving an unknown session", func() {
		s.Require().ErrorIs(s.store.Save(ctx, s.newSession()), sentinel.ErrNotFound)
	})
}

func (s *RedisStoreSuite) TestListIdle() {
	ctx := context.Background()

	old := s.newSession()
	old.TouchedAt = time.Now().Add(-time.Hour)
	s.Require().NoError(s.store.Create(ctx, old))

	fresh := s.newSession()
	s.Require().NoError(s.store.Create(ctx, fresh))

	ids, err := s.store.ListIdle(ctx, time.Now().Add(-30*time.Minute))
	s.Require().NoError(err)
	s.Require().Len(ids, 1)
	s.Equal(old.ID, ids[0])

	s.Run("closed sessions drop out of the index", func() {
		old.Closed = true
		s.Require().NoError(s.store.Save(ctx, old))

		ids, err := s.store.ListIdle(ctx, time.Now().Add(-30*time.Minute))
		s.Require().NoError(err)
		s.Empty(ids)
	})
}
