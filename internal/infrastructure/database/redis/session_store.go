// internal/infrastructure/database/redis/session_store.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionStore registers anonymous cart sessions in Redis
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionStore creates a session store whose entries expire after ttl of inactivity
func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

// Create mints and registers a new session token
func (s *SessionStore) Create(ctx context.Context) (string, error) {
	token := uuid.NewString()
	if err := s.rdb.Set(ctx, sessionKeyPrefix+token, time.Now().UTC().Unix(), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return token, nil
}

// Touch extends a known session and reports whether it exists
func (s *SessionStore) Touch(ctx context.Context, token string) (bool, error) {
	ok, err := s.rdb.Expire(ctx, sessionKeyPrefix+token, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to refresh session: %w", err)
	}
	return ok, nil
}

// Delete forgets a session
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
