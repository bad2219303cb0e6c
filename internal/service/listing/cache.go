// Package listing keeps the last good result of each per-user listing so a
// failed read can still answer with stale rows.
package listing

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"hirecircle/internal/domain"
)

type Cache interface {
	Load(ctx context.Context, key string, dest any) (bool, error)
	Save(ctx context.Context, key string, value any) error
}

// NewCache returns a Redis-backed cache when a client is available and an
// in-process one otherwise.
func NewCache(client *redis.Client, ttl time.Duration) Cache {
	if client == nil {
		return NewMemoryCache()
	}
	return NewRedisCache(client, ttl)
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryCache() Cache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Load(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.RLock()
	data, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *memoryCache) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = data
	return nil
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) Cache {
	return &redisCache{client: client, ttl: ttl}
}

func (r *redisCache) Load(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, dest)
}

func (r *redisCache) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, r.ttl).Err()
}

func Key(name, userID string) string {
	return "listing:" + name + ":" + userID
}

// Read runs fetch and remembers its rows under key. When fetch fails with a
// persistence error and rows were remembered earlier, those rows are returned
// together with the error. A cancelled context never touches the cache.
func Read[T any](ctx context.Context, cache Cache, key string, fetch func() ([]T, error)) ([]T, error) {
	rows, err := fetch()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if err != nil {
		if cache == nil || !errors.Is(err, domain.ErrPersistence) {
			return nil, err
		}

		stale := []T{}
		found, loadErr := cache.Load(ctx, key, &stale)
		if loadErr != nil {
			log.Printf("failed to load listing %s: %v", key, loadErr)
			return nil, err
		}
		if !found {
			return nil, err
		}
		return stale, err
	}

	if rows == nil {
		rows = []T{}
	}
	if cache != nil {
		if saveErr := cache.Save(ctx, key, rows); saveErr != nil {
			log.Printf("failed to save listing %s: %v", key, saveErr)
		}
	}
	return rows, nil
}

// IsStale reports whether a listing call answered from the cache.
func IsStale[T any](rows []T, err error) bool {
	return rows != nil && errors.Is(err, domain.ErrPersistence)
}
