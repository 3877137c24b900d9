package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Handler executes one task and returns a JSON-serializable payload.
type Handler func(ctx context.Context, args json.RawMessage) (interface{}, error)

// Worker drains the task queue and stores completion records. Handlers
// are registered by task name before Run is called.
type Worker struct {
	queue    *Queue
	handlers map[string]Handler
	logger   *zap.Logger

	popTimeout time.Duration
}

// NewWorker creates a worker over the given queue.
func NewWorker(queue *Queue, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		queue:      queue,
		handlers:   make(map[string]Handler),
		logger:     logger,
		popTimeout: time.Second,
	}
}

// Register binds a handler to a task name.
func (w *Worker) Register(name string, h Handler) {
	w.handlers[name] = h
}

// Run processes tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Task worker started", zap.Int("handlers", len(w.handlers)))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Task worker stopping")
			return ctx.Err()
		default:
		}

		vals, err := w.queue.redis.BRPop(ctx, w.popTimeout, queueKey).Result()
		if err != nil {
			if isNil(err) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			w.logger.Warn("Queue pop failed", zap.Error(err))
			time.Sleep(w.popTimeout)
			continue
		}
		if len(vals) < 2 {
			continue
		}

		w.process(ctx, []byte(vals[1]))
	}
}

// RunOnce pops and processes at most one task. Used by tests and by
// callers draining a queue synchronously.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	vals, err := w.queue.redis.BRPop(ctx, w.popTimeout, queueKey).Result()
	if err != nil {
		if isNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("pop task: %w", err)
	}
	if len(vals) < 2 {
		return false, nil
	}
	w.process(ctx, []byte(vals[1]))
	return true, nil
}

func (w *Worker) process(ctx context.Context, raw []byte) {
	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		w.logger.Error("Discarding malformed task", zap.Error(err))
		return
	}

	handler, ok := w.handlers[task.Name]
	if !ok {
		w.logger.Error("No handler for task", zap.String("name", task.Name))
		w.finish(ctx, task.ID, taskResult{Status: "failure", Error: "no handler for task " + task.Name})
		return
	}

	payload, err := handler(ctx, task.Args)
	if err != nil {
		w.logger.Warn("Task failed",
			zap.String("task_id", task.ID),
			zap.String("name", task.Name),
			zap.Error(err),
		)
		w.finish(ctx, task.ID, taskResult{Status: "failure", Error: err.Error()})
		return
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		w.finish(ctx, task.ID, taskResult{Status: "failure", Error: "marshal payload: " + err.Error()})
		return
	}
	w.finish(ctx, task.ID, taskResult{Status: "success", Payload: encoded})
}

func (w *Worker) finish(ctx context.Context, taskID string, res taskResult) {
	if err := w.queue.storeResult(ctx, taskID, res); err != nil {
		w.logger.Error("Failed to store task result",
			zap.String("task_id", taskID),
			zap.Error(err),
		)
	}
}

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
