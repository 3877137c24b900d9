package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/advista-ai/orchestrator/internal/models"
	"github.com/advista-ai/orchestrator/internal/taskqueue"
)

// RegisterSearchHandler wires the category-search task onto a worker.
// Provider failures are returned as error payloads so the producer sees
// a uniform SearchResponse either way.
func RegisterSearchHandler(w *taskqueue.Worker, searcher Searcher) {
	w.Register(SearchTaskName, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args SearchTaskArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("decode search task args: %w", err)
		}
		resp, err := searcher.Search(ctx, args.Query, args.Engine)
		if err != nil {
			return models.SearchResponse{Error: err.Error()}, nil
		}
		return resp, nil
	})
}
