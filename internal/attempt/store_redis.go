package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"riskgate/pkg/platform/sentinel"
)

const redisKeyPrefix = "riskgate:attempt:"

// RedisStore persists suspended attempts in Redis so any instance can
// resume an attempt after the client round-trip. Expiry is delegated to
// Redis TTLs.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedis constructs a Redis-backed attempt store.
func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, attempt *Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}

	ttl := time.Until(attempt.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("attempt %s: %w", attempt.ID, sentinel.ErrExpired)
	}

	if err := s.client.Set(ctx, redisKeyPrefix+attempt.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, id string) (*Attempt, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("attempt %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find attempt: %w", err)
	}

	var attempt Attempt
	if err := json.Unmarshal(data, &attempt); err != nil {
		return nil, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return &attempt, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete attempt: %w", err)
	}
	return nil
}
