// package cache wraps the Redis key-value store used by the diagnostics endpoints
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotifie/internal/shared"
	"github.com/redis/go-redis/v9"
)

// Store is the key-value adapter. Every operation fails independently.
type Store interface {
	Ping(ctx context.Context) (string, error)
	// Set encodes value as JSON and stores it under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Get decodes the value stored under key into dst. The boolean is false on a miss.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Delete removes keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int64, error)
	Close() error
}

// RedisStore implements [Store] over a pooled [redis.Client].
type RedisStore struct {
	client *redis.Client
	config shared.RedisConfig
}

// NewRedisStore creates a [RedisStore] from the redis section of the configuration.
//
// No connection is attempted until the first command.
func NewRedisStore(cfg shared.RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.Database,
		DialTimeout:  cfg.ConnectTimeout,
		ReadTimeout:  cfg.CommandTimeout,
		WriteTimeout: cfg.CommandTimeout,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   -1,
	})
	return &RedisStore{client: client, config: cfg}
}

// Config returns the connection settings the store was built with.
func (s *RedisStore) Config() shared.RedisConfig {
	return s.config
}

func (s *RedisStore) Ping(ctx context.Context) (string, error) {
	pong, err := s.client.Ping(ctx).Result()
	if err != nil {
		return "", fmt.Errorf("%w: ping: %w", shared.ErrCacheFailure, err)
	}
	return pong, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", shared.ErrCacheFailure, key, err)
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", shared.ErrCacheFailure, key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("%w: get %s: %w", shared.ErrCacheFailure, key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("%w: decode %s: %w", shared.ErrCacheFailure, key, err)
	}
	return true, nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: delete: %w", shared.ErrCacheFailure, err)
	}
	return n, nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
