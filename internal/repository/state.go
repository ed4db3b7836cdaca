package repository

import (
	"context"
	"time"

	"collaborative-codepad/internal/domain"
)

// SnapshotCache is a read-through cache in front of the persistence gateway,
// typically backed by Redis. A miss returns ErrNotFound.
type SnapshotCache interface {
	// GetCached returns the cached snapshot for a room, or ErrNotFound on
	// a cache miss.
	GetCached(ctx context.Context, roomID string) (*domain.RoomSnapshot, error)

	// SetCached stores a snapshot with the given TTL. A zero TTL means no
	// expiry.
	SetCached(ctx context.Context, roomID string, snapshot *domain.RoomSnapshot, ttl time.Duration) error

	// Invalidate drops the cached snapshot for a room.
	Invalidate(ctx context.Context, roomID string) error
}
