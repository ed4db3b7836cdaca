package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"collaborative-codepad/internal/domain"
	"collaborative-codepad/internal/repository"
)

// RedisSnapshotCache is the Redis-backed snapshot cache in front of the
// persistence gateway.
type RedisSnapshotCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSnapshotCache creates a RedisSnapshotCache.
func NewRedisSnapshotCache(client *redis.Client, keyPrefix string) *RedisSnapshotCache {
	if client == nil {
		panic("redis client cannot be nil for RedisSnapshotCache")
	}
	if keyPrefix == "" {
		keyPrefix = "cp:"
	}
	return &RedisSnapshotCache{client: client, keyPrefix: keyPrefix}
}

func (r *RedisSnapshotCache) snapshotKey(roomID string) string {
	return fmt.Sprintf("%sroom:%s:snapshot", r.keyPrefix, roomID)
}

// GetCached returns the cached snapshot, or repository.ErrNotFound on a miss.
func (r *RedisSnapshotCache) GetCached(ctx context.Context, roomID string) (*domain.RoomSnapshot, error) {
	key := r.snapshotKey(roomID)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get snapshot cache for room %q: %w", roomID, err)
	}
	var snapshot domain.RoomSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("redis: decode cached snapshot for room %q: %w", roomID, err)
	}
	return &snapshot, nil
}

// SetCached stores a snapshot with the given TTL.
func (r *RedisSnapshotCache) SetCached(ctx context.Context, roomID string, snapshot *domain.RoomSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("redis: encode snapshot for room %q: %w", roomID, err)
	}
	if err := r.client.Set(ctx, r.snapshotKey(roomID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot cache for room %q: %w", roomID, err)
	}
	return nil
}

// Invalidate drops the cached snapshot for a room.
func (r *RedisSnapshotCache) Invalidate(ctx context.Context, roomID string) error {
	if err := r.client.Del(ctx, r.snapshotKey(roomID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate snapshot cache for room %q: %w", roomID, err)
	}
	return nil
}
