package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "otp:v1:"

// RedisStore keeps codes in Redis so several relay instances share them.
// Expiry is enforced by Redis when ttl > 0.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, redisKeyPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get otp: %w", err)
	}
	return code, nil
}

func (s *RedisStore) Set(ctx context.Context, email, code string) error {
	if err := s.client.Set(ctx, redisKeyPrefix+email, code, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set otp: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+email).Err(); err != nil {
		return fmt.Errorf("redis delete otp: %w", err)
	}
	return nil
}
