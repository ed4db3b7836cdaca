package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"collaborative-codepad/internal/domain"
)

// SnapshotRepository is a testify mock of repository.SnapshotRepository.
type SnapshotRepository struct {
	mock.Mock
}

func (m *SnapshotRepository) Get(ctx context.Context, roomID string) (*domain.RoomSnapshot, error) {
	args := m.Called(ctx, roomID)
	if snap, ok := args.Get(0).(*domain.RoomSnapshot); ok {
		return snap, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SnapshotRepository) Put(ctx context.Context, snapshot *domain.RoomSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

// SnapshotCache is a testify mock of repository.SnapshotCache.
type SnapshotCache struct {
	mock.Mock
}

func (m *SnapshotCache) GetCached(ctx context.Context, roomID string) (*domain.RoomSnapshot, error) {
	args := m.Called(ctx, roomID)
	if snap, ok := args.Get(0).(*domain.RoomSnapshot); ok {
		return snap, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SnapshotCache) SetCached(ctx context.Context, roomID string, snapshot *domain.RoomSnapshot, ttl time.Duration) error {
	args := m.Called(ctx, roomID, snapshot, ttl)
	return args.Error(0)
}

func (m *SnapshotCache) Invalidate(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}
