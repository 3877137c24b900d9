package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/circuitbreaker"
	"github.com/advista-ai/orchestrator/internal/metrics"
)

const (
	queueKey        = "advista:tasks"
	resultKeyPrefix = "advista:task:result:"
	resultTTL       = 15 * time.Minute
)

// Task is one queued unit of work.
type Task struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Args        json.RawMessage `json:"args"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// TaskStatus is the poll-side view of a task.
type TaskStatus struct {
	Ready      bool            `json:"ready"`
	Successful bool            `json:"successful"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// taskResult is the stored completion record.
type taskResult struct {
	Status  string          `json:"status"` // "success" or "failure"
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Queue is a Redis list-backed task queue. Producers LPUSH task records;
// workers BRPOP them and write a result key the producer polls.
type Queue struct {
	redis  *circuitbreaker.RedisWrapper
	logger *zap.Logger
}

// NewQueue creates a task queue over the given Redis wrapper.
func NewQueue(redis *circuitbreaker.RedisWrapper, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{redis: redis, logger: logger}
}

// Submit enqueues a named task and returns its ID immediately.
func (q *Queue) Submit(ctx context.Context, name string, args interface{}) (string, error) {
	rawArgs, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("marshal task args: %w", err)
	}

	task := Task{
		ID:          uuid.New().String(),
		Name:        name,
		Args:        rawArgs,
		SubmittedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("marshal task: %w", err)
	}

	if err := q.redis.LPush(ctx, queueKey, payload).Err(); err != nil {
		return "", fmt.Errorf("enqueue task: %w", err)
	}

	metrics.TasksSubmitted.Inc()
	q.logger.Debug("Task submitted",
		zap.String("task_id", task.ID),
		zap.String("name", name),
	)
	return task.ID, nil
}

// Result reports whether the task has completed. A task with no stored
// result yet is Ready=false, never an error.
func (q *Queue) Result(ctx context.Context, taskID string) (TaskStatus, error) {
	raw, err := q.redis.Get(ctx, resultKeyPrefix+taskID).Result()
	if err != nil {
		if isNil(err) {
			return TaskStatus{Ready: false}, nil
		}
		return TaskStatus{}, fmt.Errorf("fetch task result: %w", err)
	}

	var res taskResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return TaskStatus{}, fmt.Errorf("decode task result: %w", err)
	}
	return TaskStatus{
		Ready:      true,
		Successful: res.Status == "success",
		Payload:    res.Payload,
		Error:      res.Error,
	}, nil
}

// storeResult writes a completion record with a bounded TTL.
func (q *Queue) storeResult(ctx context.Context, taskID string, res taskResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal task result: %w", err)
	}
	if err := q.redis.Set(ctx, resultKeyPrefix+taskID, payload, resultTTL).Err(); err != nil {
		return fmt.Errorf("store task result: %w", err)
	}
	return nil
}
