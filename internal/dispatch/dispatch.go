package dispatch

import (
	"context"
	"errors"

	"github.com/advista-ai/orchestrator/internal/models"
)

// ErrAllSearchesFailed indicates no category produced a usable payload.
var ErrAllSearchesFailed = errors.New("all searches failed")

// Dispatcher fans a search plan out across categories and gathers the
// raw payloads. Individual category failures surface as error payloads
// in the result map; only total failure is an error.
type Dispatcher interface {
	Dispatch(ctx context.Context, sessionID string, queries map[models.Category]string) (map[models.Category]models.CategoryResult, error)
}

// Searcher runs one web search.
type Searcher interface {
	Search(ctx context.Context, query, engine string) (models.SearchResponse, error)
}

// Opinion-heavy categories go through the forums engine; the rest use
// plain web search.
var engineFor = map[models.Category]string{
	models.CategoryProduct:    "google",
	models.CategoryCompetitor: "google_forums",
	models.CategoryAudience:   "google_forums",
	models.CategoryCampaign:   "google",
	models.CategoryPlatform:   "google",
}

// EngineFor returns the search engine used for a category.
func EngineFor(cat models.Category) string {
	if e, ok := engineFor[cat]; ok {
		return e
	}
	return "google"
}

// Engines returns the category-to-engine table for the given categories.
func Engines(cats []models.Category) map[models.Category]string {
	out := make(map[models.Category]string, len(cats))
	for _, c := range cats {
		out[c] = EngineFor(c)
	}
	return out
}

// errorResult is the uniform shape for a failed category.
func errorResult(cat models.Category, query, msg string) models.CategoryResult {
	return models.CategoryResult{
		Category: cat,
		Query:    query,
		Response: models.SearchResponse{Error: msg},
	}
}

// allFailed reports whether every gathered payload is an error payload.
func allFailed(results map[models.Category]models.CategoryResult) bool {
	if len(results) == 0 {
		return true
	}
	for _, r := range results {
		if r.Response.Error == "" {
			return false
		}
	}
	return true
}
