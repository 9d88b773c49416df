package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"grantor/pkg/platform/sentinel"
)

const sessionKeyPrefix = "interact:sid:"

// RedisStore keeps session bindings in Redis so any instance behind a load
// balancer can finish a flow another instance started. Redis expiry enforces
// the session lifetime.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Set(ctx context.Context, sid, nonceVal string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKeyPrefix+sid, nonceVal, ttl).Err(); err != nil {
		return fmt.Errorf("set session binding: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sid string) (string, error) {
	val, err := s.client.Get(ctx, sessionKeyPrefix+sid).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("session %s: %w", sid, sentinel.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get session binding: %w", err)
	}
	return val, nil
}

func (s *RedisStore) Delete(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+sid).Err(); err != nil {
		return fmt.Errorf("delete session binding: %w", err)
	}
	return nil
}
