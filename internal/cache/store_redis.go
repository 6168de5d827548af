package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"creditline/internal/domain"
)

// RedisStore shares the result cache across replicas. Retention is enforced
// by Redis key expiry, so entries vanish without a sweeper.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed store with the given retention.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

func resultKey(dni domain.DNI) string {
	return "creditline:result:" + dni.String()
}

// Find returns the cached result, or ErrNotFound on miss.
func (s *RedisStore) Find(ctx context.Context, dni domain.DNI) (*domain.QueryResult, error) {
	raw, err := s.client.Get(ctx, resultKey(dni)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var result domain.QueryResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}
	return &result, nil
}

// Save stores the result under the identifier key with expiry.
func (s *RedisStore) Save(ctx context.Context, result domain.QueryResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := s.client.Set(ctx, resultKey(domain.DNI(result.DNI)), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
