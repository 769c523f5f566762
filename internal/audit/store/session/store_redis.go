package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"formtrail/internal/audit/models"
	"formtrail/pkg/platform/sentinel"
)

const (
	// Redis key prefix for session state
	sessionKeyPrefix = "ft:session:"
	// Sorted set indexing open sessions by last-touch time, for the reaper
	touchedIndexKey = "ft:sessions:touched"
)

// Redis is the production session store for distributed deployments where
// multiple instances serve the same set of live sessions.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed session store. Session keys expire after
// ttl so abandoned state cannot accumulate; zero disables expiry.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func sessionKey(id uuid.UUID) string {
	return sessionKeyPrefix + id.String()
}

func (s *Redis) Create(ctx context.Context, sess *models.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, sessionKey(sess.ID), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}

	return s.touch(ctx, sess)
}

func (s *Redis) Find(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *Redis) Save(ctx context.Context, sess *models.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := s.client.SetXX(ctx, sessionKey(sess.ID), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if !ok {
		return sentinel.ErrNotFound
	}

	return s.touch(ctx, sess)
}

// touch maintains the reaper index: open sessions are scored by last-touch
// time, closed sessions drop out of the index entirely.
func (s *Redis) touch(ctx context.Context, sess *models.Session) error {
	if sess.Closed {
		if err := s.client.ZRem(ctx, touchedIndexKey, sess.ID.String()).Err(); err != nil {
			return fmt.Errorf("drop session from touch index: %w", err)
		}
		return nil
	}

	member := redis.Z{Score: float64(sess.TouchedAt.UnixMilli()), Member: sess.ID.String()}
	if err := s.client.ZAdd(ctx, touchedIndexKey, member).Err(); err != nil {
		return fmt.Errorf("index session touch time: %w", err)
	}
	return nil
}

func (s *Redis) ListIdle(ctx context.Context, before time.Time) ([]uuid.UUID, error) {
	members, err := s.client.ZRangeByScore(ctx, touchedIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("(%d", before.UnixMilli()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list idle sessions: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		id, err := uuid.Parse(member)
		if err != nil {
			// Stale index entry; skip rather than fail the sweep.
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
