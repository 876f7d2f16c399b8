package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"classroom-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps login sessions in Redis so every instance sees a logout at once.
// Each session is SET classroom:session:{id} {userID} EX ttl.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Create(ctx context.Context, sessionID string, userID int64, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(sessionID), strconv.FormatInt(userID, 10), ttl).Err()
}

func (s *SessionStore) Lookup(ctx context.Context, sessionID string) (int64, error) {
	userID, err := s.client.Get(ctx, s.key(sessionID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrSessionNotFound
	}
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "classroom:session:" + sessionID
}
