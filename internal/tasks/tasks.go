package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"collaborative-codepad/internal/domain"
)

// Task type names.
const (
	// TypeSnapshotFlush writes one room snapshot through the persistence
	// gateway.
	TypeSnapshotFlush = "room:flush"
	// TypeFlushSweep re-enqueues flushes for live rooms whose last flush
	// enqueue failed.
	TypeFlushSweep = "room:flush_sweep"
)

// Queue names, highest priority first.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// SnapshotFlushPayload carries the full snapshot; the worker applies it
// last-writer-wins, so the task is self-contained and safely retryable.
type SnapshotFlushPayload struct {
	Snapshot domain.RoomSnapshot
}

// NewSnapshotFlushTask builds a flush task for one snapshot.
func NewSnapshotFlushTask(snapshot *domain.RoomSnapshot) (*asynq.Task, error) {
	payload, err := json.Marshal(SnapshotFlushPayload{Snapshot: *snapshot})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal flush payload: %w", err)
	}
	return asynq.NewTask(TypeSnapshotFlush, payload), nil
}

// NewFlushSweepTask builds the periodic sweep task. It carries no payload.
func NewFlushSweepTask() *asynq.Task {
	return asynq.NewTask(TypeFlushSweep, nil)
}

// Enqueuer hands snapshots to the asynq queue. It implements the session
// registry's SnapshotFlusher: enqueueing is cheap and never waits on the
// gateway, and asynq retries failed writes with exponential backoff.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer creates an Enqueuer.
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	if client == nil {
		panic("asynq client cannot be nil for Enqueuer")
	}
	return &Enqueuer{client: client}
}

// EnqueueFlush queues a snapshot write. Eviction flushes go to the critical
// queue so a room's final state is persisted ahead of routine edit flushes.
func (e *Enqueuer) EnqueueFlush(ctx context.Context, snapshot *domain.RoomSnapshot, evicting bool) error {
	task, err := NewSnapshotFlushTask(snapshot)
	if err != nil {
		return err
	}
	queue := QueueDefault
	if evicting {
		queue = QueueCritical
	}
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(queue),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue snapshot flush for room %q: %w", snapshot.RoomID, err)
	}
	return nil
}
