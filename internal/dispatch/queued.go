package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/metrics"
	"github.com/advista-ai/orchestrator/internal/models"
	"github.com/advista-ai/orchestrator/internal/taskqueue"
)

// SearchTaskName is the queue task name for one category search.
const SearchTaskName = "category_search"

// SearchTaskArgs is the payload submitted for one category search.
type SearchTaskArgs struct {
	Category models.Category `json:"category"`
	Query    string          `json:"query"`
	Engine   string          `json:"engine"`
}

// TaskQueue is the submit/poll surface of the task queue.
type TaskQueue interface {
	Submit(ctx context.Context, name string, args interface{}) (string, error)
	Result(ctx context.Context, taskID string) (taskqueue.TaskStatus, error)
}

// TaskIDSaver persists the category-to-task-ID map as soon as tasks are
// submitted, so an operator can trace a stuck session.
type TaskIDSaver func(ctx context.Context, sessionID string, taskIDs map[string]string) error

// QueuedDispatcher submits one task per category and polls for results
// until the deadline. Categories whose tasks have not finished by then
// are recorded as timed out; the rest of the pipeline proceeds with
// whatever arrived.
type QueuedDispatcher struct {
	queue       TaskQueue
	saveTaskIDs TaskIDSaver
	maxWait     time.Duration
	interval    time.Duration
	logger      *zap.Logger
}

// NewQueuedDispatcher creates a queued dispatcher. maxWait and interval
// default to 60s and 2s.
func NewQueuedDispatcher(queue TaskQueue, saveTaskIDs TaskIDSaver, maxWait, interval time.Duration, logger *zap.Logger) *QueuedDispatcher {
	if maxWait <= 0 {
		maxWait = 60 * time.Second
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueuedDispatcher{
		queue:       queue,
		saveTaskIDs: saveTaskIDs,
		maxWait:     maxWait,
		interval:    interval,
		logger:      logger,
	}
}

// Dispatch submits every non-empty query as a task, persists the task
// IDs, and polls until all tasks finish or the deadline passes.
func (d *QueuedDispatcher) Dispatch(ctx context.Context, sessionID string, queries map[models.Category]string) (map[models.Category]models.CategoryResult, error) {
	results := make(map[models.Category]models.CategoryResult, len(queries))
	taskIDs := make(map[models.Category]string, len(queries))

	for cat, query := range queries {
		if query == "" {
			continue
		}
		engine := EngineFor(cat)
		metrics.SearchesDispatched.WithLabelValues(string(cat), engine, "queued").Inc()

		taskID, err := d.queue.Submit(ctx, SearchTaskName, SearchTaskArgs{
			Category: cat,
			Query:    query,
			Engine:   engine,
		})
		if err != nil {
			metrics.SearchFailures.WithLabelValues(string(cat), "submit_error").Inc()
			d.logger.Warn("Task submission failed",
				zap.String("session_id", sessionID),
				zap.String("category", string(cat)),
				zap.Error(err),
			)
			results[cat] = errorResult(cat, query, "task submission failed: "+err.Error())
			continue
		}
		taskIDs[cat] = taskID
	}

	if d.saveTaskIDs != nil && len(taskIDs) > 0 {
		ids := make(map[string]string, len(taskIDs))
		for cat, id := range taskIDs {
			ids[string(cat)] = id
		}
		if err := d.saveTaskIDs(ctx, sessionID, ids); err != nil {
			// Traceability only; polling proceeds regardless.
			d.logger.Warn("Failed to persist task IDs",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}

	d.poll(ctx, sessionID, queries, taskIDs, results)

	if allFailed(results) {
		return results, ErrAllSearchesFailed
	}
	d.logger.Info("Queued dispatch completed",
		zap.String("session_id", sessionID),
		zap.Int("categories", len(results)),
	)
	return results, nil
}

func (d *QueuedDispatcher) poll(ctx context.Context, sessionID string, queries map[models.Category]string, taskIDs map[models.Category]string, results map[models.Category]models.CategoryResult) {
	deadline := time.Now().Add(d.maxWait)
	pending := make(map[models.Category]string, len(taskIDs))
	for cat, id := range taskIDs {
		pending[cat] = id
	}

	for len(pending) > 0 {
		for cat, taskID := range pending {
			status, err := d.queue.Result(ctx, taskID)
			if err != nil {
				d.logger.Warn("Task poll failed",
					zap.String("session_id", sessionID),
					zap.String("task_id", taskID),
					zap.Error(err),
				)
				continue
			}
			if !status.Ready {
				continue
			}
			delete(pending, cat)

			if !status.Successful {
				metrics.SearchFailures.WithLabelValues(string(cat), "task_error").Inc()
				results[cat] = errorResult(cat, queries[cat], "search task failed: "+status.Error)
				continue
			}
			var resp models.SearchResponse
			if err := json.Unmarshal(status.Payload, &resp); err != nil {
				metrics.SearchFailures.WithLabelValues(string(cat), "decode_error").Inc()
				results[cat] = errorResult(cat, queries[cat], "undecodable task payload")
				continue
			}
			if resp.Error != "" {
				metrics.SearchFailures.WithLabelValues(string(cat), "provider_error").Inc()
			}
			results[cat] = models.CategoryResult{Category: cat, Query: queries[cat], Response: resp}
		}

		if len(pending) == 0 {
			return
		}
		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			for cat := range pending {
				results[cat] = errorResult(cat, queries[cat], "cancelled while waiting for search task")
			}
			return
		case <-time.After(d.interval):
		}
	}

	for cat, taskID := range pending {
		metrics.TaskPollTimeouts.Inc()
		metrics.SearchFailures.WithLabelValues(string(cat), "timeout").Inc()
		d.logger.Warn("Search task timed out",
			zap.String("session_id", sessionID),
			zap.String("category", string(cat)),
			zap.String("task_id", taskID),
			zap.Duration("max_wait", d.maxWait),
		)
		results[cat] = errorResult(cat, queries[cat], "search task timed out")
	}
}
