package repository

import (
	"context"

	"collaborative-codepad/internal/domain"
)

// SnapshotRepository is the persistence gateway for durable room snapshots.
// It is used only for hydration on first join and best-effort flushes; it
// must never sit on the live broadcast path.
type SnapshotRepository interface {
	// Get returns the snapshot for a room, or ErrSnapshotNotFound if the
	// room has never been flushed.
	Get(ctx context.Context, roomID string) (*domain.RoomSnapshot, error)

	// Put saves a snapshot, overwriting any previous one for the same room.
	Put(ctx context.Context, snapshot *domain.RoomSnapshot) error
}
