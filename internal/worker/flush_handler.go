package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"collaborative-codepad/internal/repository"
	"collaborative-codepad/internal/tasks"
)

// snapshotCacheTTL bounds how long a flushed snapshot stays warm in Redis.
const snapshotCacheTTL = time.Hour

// SnapshotFlushHandler writes queued snapshots through the persistence
// gateway. A failed gateway write is returned to asynq, which retries with
// backoff; the affected room stays live-only until a flush succeeds.
type SnapshotFlushHandler struct {
	snapshots repository.SnapshotRepository
	cache     repository.SnapshotCache
}

// NewSnapshotFlushHandler creates a SnapshotFlushHandler.
func NewSnapshotFlushHandler(snapshots repository.SnapshotRepository, cache repository.SnapshotCache) *SnapshotFlushHandler {
	if snapshots == nil {
		panic("SnapshotRepository cannot be nil for SnapshotFlushHandler")
	}
	if cache == nil {
		panic("SnapshotCache cannot be nil for SnapshotFlushHandler")
	}
	return &SnapshotFlushHandler{snapshots: snapshots, cache: cache}
}

// ProcessTask implements asynq.Handler.
func (h *SnapshotFlushHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.SnapshotFlushPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logrus.WithField("task_type", t.Type()).WithError(err).Error("Failed to unmarshal flush payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	snapshot := payload.Snapshot
	logCtx := logrus.WithFields(logrus.Fields{
		"task_type": t.Type(),
		"room_id":   snapshot.RoomID,
	})

	if err := h.snapshots.Put(ctx, &snapshot); err != nil {
		logCtx.WithError(err).Error("Snapshot gateway write failed, task will be retried")
		return fmt.Errorf("failed to persist snapshot for room %q: %w", snapshot.RoomID, err)
	}

	// Cache refresh is best-effort; the gateway row is the source of truth.
	if err := h.cache.SetCached(ctx, snapshot.RoomID, &snapshot, snapshotCacheTTL); err != nil {
		logCtx.WithError(err).Warn("Failed to refresh snapshot cache after flush")
	}

	logCtx.Info("Snapshot flushed")
	return nil
}
