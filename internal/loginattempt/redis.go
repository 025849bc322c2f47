package loginattempt

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "login-attempts:"

// RedisStore is the redis-backed store, for deployments running multiple API
// instances behind one limiter.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis-backed attempt store.
func NewRedisStore(cfg RedisConfig) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

// NewRedisStoreWithClient wraps an existing client (tests use miniredis).
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (int, error) {
	count, err := s.client.Get(ctx, redisKeyPrefix+key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("loginattempt: redis get: %w", err)
	}
	return count, nil
}

func (s *RedisStore) Increment(ctx context.Context, key string) error {
	// INCR plus EXPIRE on every write gives expire-after-write semantics.
	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, redisKeyPrefix+key)
	pipe.Expire(ctx, redisKeyPrefix+key, Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("loginattempt: redis incr: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
