package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"hirecircle/internal/domain"
)

// SnapshotStore keeps the last successfully fetched feed per user so a
// failed fetch can fall back to it.
type SnapshotStore interface {
	Load(ctx context.Context, userID string) (*domain.FeedSnapshot, error)
	Save(ctx context.Context, userID string, snapshot domain.FeedSnapshot) error
}

// NewSnapshotStore returns a Redis-backed store when a client is available
// and an in-process one otherwise.
func NewSnapshotStore(client *redis.Client, ttl time.Duration) SnapshotStore {
	if client == nil {
		return NewMemorySnapshotStore()
	}
	return NewRedisSnapshotStore(client, ttl)
}

type memorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.FeedSnapshot
}

func NewMemorySnapshotStore() SnapshotStore {
	return &memorySnapshotStore{snapshots: make(map[string]domain.FeedSnapshot)}
}

func (m *memorySnapshotStore) Load(ctx context.Context, userID string) (*domain.FeedSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot, ok := m.snapshots[userID]
	if !ok {
		return nil, nil
	}
	items := make([]domain.Notification, len(snapshot.Items))
	copy(items, snapshot.Items)
	snapshot.Items = items
	return &snapshot, nil
}

func (m *memorySnapshotStore) Save(ctx context.Context, userID string, snapshot domain.FeedSnapshot) error {
	items := make([]domain.Notification, len(snapshot.Items))
	copy(items, snapshot.Items)
	snapshot.Items = items

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[userID] = snapshot
	return nil
}

type redisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) SnapshotStore {
	return &redisSnapshotStore{client: client, ttl: ttl}
}

func snapshotKey(userID string) string {
	return "feed:snapshot:" + userID
}

func (r *redisSnapshotStore) Load(ctx context.Context, userID string) (*domain.FeedSnapshot, error) {
	cached, err := r.client.Get(ctx, snapshotKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snapshot domain.FeedSnapshot
	if err := json.Unmarshal([]byte(cached), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *redisSnapshotStore) Save(ctx context.Context, userID string, snapshot domain.FeedSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, snapshotKey(userID), data, r.ttl).Err()
}
