package worker

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"collaborative-codepad/internal/repository"
	"collaborative-codepad/internal/tasks"
)

// WorkerServer wraps the asynq server running the flush pipeline.
type WorkerServer struct {
	server    *asynq.Server
	log       *logrus.Entry
	snapshots repository.SnapshotRepository
	cache     repository.SnapshotCache
	registry  DirtyFlusher
}

// NewWorkerServer creates a WorkerServer.
func NewWorkerServer(
	redisOpt asynq.RedisClientOpt,
	snapshots repository.SnapshotRepository,
	cache repository.SnapshotCache,
	registry DirtyFlusher,
	logger *logrus.Logger,
) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueCritical: 6,
				tasks.QueueDefault:  3,
				tasks.QueueLow:      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
		},
	)

	return &WorkerServer{
		server:    server,
		log:       logEntry,
		snapshots: snapshots,
		cache:     cache,
		registry:  registry,
	}
}

// Start runs the worker server. It should be called in its own goroutine.
func (ws *WorkerServer) Start() {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSnapshotFlush, NewSnapshotFlushHandler(ws.snapshots, ws.cache).ProcessTask)
	mux.HandleFunc(tasks.TypeFlushSweep, NewFlushSweepHandler(ws.registry).ProcessTask)

	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(mux); err != nil {
		if !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Fatalf("Could not run worker server: %v", err)
		}
		ws.log.Info("Worker server stopped.")
	}
}

// Shutdown gracefully stops the worker server.
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
