//go:build integration

package event_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"formtrail/internal/audit/models"
	"formtrail/internal/audit/store/event"
	"formtrail/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *event.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = event.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events"))
}

func (s *PostgresStoreSuite) TestAppendAndList() {
	ctx := context.Background()
	sessionID := uuid.New()

	first := models.Snapshot{
		Kind: models.KindFormStart, Start: 1000,
		TrackLocation: true, TrackChanges: true,
		Latitude: "54.3", Longitude: "18.6", Accuracy: "5",
	}
	second := models.Snapshot{
		Kind: models.KindQuestion, Start: 2000, End: 3000, EndSet: true,
		NodePath: "/data/repeat[2]/q", OldValue: "a,b", NewValue: "plain",
		TrackLocation: true, TrackChanges: true,
	}
	s.Require().NoError(s.store.Append(ctx, sessionID, first))
	s.Require().NoError(s.store.Append(ctx, sessionID, second))

	snaps, err := s.store.ListBySession(ctx, sessionID)
	s.Require().NoError(err)
	s.Require().Len(snaps, 2)
	s.Equal(first, snaps[0])
	s.Equal(second, snaps[1])

	s.Run("serialization survives the round trip", func() {
		s.Equal(
			`question,/data/repeat/q,2000,3000,,,,"a,b",plain`,
			models.FromSnapshot(snaps[1]).String(),
		)
	})
}

func (s *PostgresStoreSuite) TestSessionsAreIsolated() {
	ctx := context.Background()
	first := uuid.New()
	second := uuid.New()

	s.Require().NoError(s.store.Append(ctx, first, models.Snapshot{Kind: models.KindFormStart, Start: 1}))

	count, err := s.store.CountBySession(ctx, second)
	s.Require().NoError(err)
	s.Zero(count)

	snaps, err := s.store.ListBySession(ctx, second)
	s.Require().NoError(err)
	s.Empty(snaps)
}

func (s *PostgresStoreSuite) TestOrderSurvivesManyAppends() {
	ctx := context.Background()
	sessionID := uuid.New()

	for i := 0; i < 50; i++ {
		snap := models.Snapshot{Kind: models.KindQuestion, Start: int64(i)}
		s.Require().NoError(s.store.Append(ctx, sessionID, snap))
	}

	snaps, err := s.store.ListBySession(ctx, sessionID)
	s.Require().NoError(err)
	s.Require().Len(snaps, 50)
	for i, snap := range snaps {
		s.Equal(int64(i), snap.Start)
	}
}
