package dispatch

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/metrics"
	"github.com/advista-ai/orchestrator/internal/models"
)

// InlineDispatcher runs category searches in-process on a bounded
// worker pool. A failed category yields an error payload; siblings keep
// running.
type InlineDispatcher struct {
	searcher Searcher
	workers  int
	logger   *zap.Logger
}

// NewInlineDispatcher creates an inline dispatcher with the given pool size.
func NewInlineDispatcher(searcher Searcher, workers int, logger *zap.Logger) *InlineDispatcher {
	if workers <= 0 {
		workers = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InlineDispatcher{searcher: searcher, workers: workers, logger: logger}
}

// Dispatch runs every non-empty query concurrently and gathers results.
func (d *InlineDispatcher) Dispatch(ctx context.Context, sessionID string, queries map[models.Category]string) (map[models.Category]models.CategoryResult, error) {
	results := make(map[models.Category]models.CategoryResult, len(queries))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, d.workers)

	for cat, query := range queries {
		if query == "" {
			continue
		}
		wg.Add(1)
		go func(cat models.Category, query string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			engine := EngineFor(cat)
			metrics.SearchesDispatched.WithLabelValues(string(cat), engine, "inline").Inc()

			resp, err := d.searcher.Search(ctx, query, engine)
			var result models.CategoryResult
			if err != nil {
				metrics.SearchFailures.WithLabelValues(string(cat), "request_error").Inc()
				d.logger.Warn("Category search failed",
					zap.String("session_id", sessionID),
					zap.String("category", string(cat)),
					zap.Error(err),
				)
				result = errorResult(cat, query, err.Error())
			} else {
				if resp.Error != "" {
					metrics.SearchFailures.WithLabelValues(string(cat), "provider_error").Inc()
				}
				result = models.CategoryResult{Category: cat, Query: query, Response: resp}
			}

			mu.Lock()
			results[cat] = result
			mu.Unlock()
		}(cat, query)
	}
	wg.Wait()

	if allFailed(results) {
		return results, ErrAllSearchesFailed
	}

	d.logger.Info("Inline dispatch completed",
		zap.String("session_id", sessionID),
		zap.Int("categories", len(results)),
	)
	return results, nil
}
