package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/taskloop/core/internal/ports"
)

// CacheRepositoryImpl implements the CacheRepository interface on Redis.
// Values are stored as JSON.
type CacheRepositoryImpl struct {
	client *redis.Client
}

// NewCacheRepository creates a new Redis-backed cache repository
func NewCacheRepository(client *redis.Client) ports.CacheRepository {
	return &CacheRepositoryImpl{client: client}
}

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = fmt.Errorf("cache miss")

func (r *CacheRepositoryImpl) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := r.client.Set(ctx, key, payload, expiration).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}

	return nil
}

func (r *CacheRepositoryImpl) Get(ctx context.Context, key string, dest interface{}) error {
	payload, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache get: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("unmarshal cache value: %w", err)
	}

	return nil
}

func (r *CacheRepositoryImpl) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (r *CacheRepositoryImpl) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists: %w", err)
	}
	return n > 0, nil
}

func (r *CacheRepositoryImpl) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal cache value: %w", err)
	}

	ok, err := r.client.SetNX(ctx, key, payload, expiration).Result()
	if err != nil {
		return false, fmt.Errorf("cache setnx: %w", err)
	}

	return ok, nil
}

// NewRedisClient dials Redis and verifies the connection.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return client, nil
}
