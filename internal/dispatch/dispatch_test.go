package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/circuitbreaker"
	"github.com/advista-ai/orchestrator/internal/models"
	"github.com/advista-ai/orchestrator/internal/taskqueue"
)

type fakeSearcher struct {
	mu      sync.Mutex
	fail    map[models.Category]bool
	engines map[models.Category]string
}

func (f *fakeSearcher) Search(ctx context.Context, query, engine string) (models.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for cat := range engineFor {
		if query == "query for "+string(cat) {
			if f.engines == nil {
				f.engines = make(map[models.Category]string)
			}
			f.engines[cat] = engine
			if f.fail[cat] {
				return models.SearchResponse{}, errors.New("provider unreachable")
			}
			return models.SearchResponse{
				OrganicResults: []models.RawOrganic{{Title: "hit for " + string(cat)}},
			}, nil
		}
	}
	return models.SearchResponse{}, fmt.Errorf("unexpected query %q", query)
}

func allQueries() map[models.Category]string {
	out := make(map[models.Category]string)
	for _, cat := range models.Categories {
		out[cat] = "query for " + string(cat)
	}
	return out
}

func TestEngineFor(t *testing.T) {
	assert.Equal(t, "google_forums", EngineFor(models.CategoryAudience))
	assert.Equal(t, "google_forums", EngineFor(models.CategoryCompetitor))
	assert.Equal(t, "google", EngineFor(models.CategoryProduct))
	assert.Equal(t, "google", EngineFor(models.CategoryCampaign))
	assert.Equal(t, "google", EngineFor(models.CategoryPlatform))
	assert.Equal(t, "google", EngineFor(models.Category("unknown")))
}

func TestInlineDispatchAllSucceed(t *testing.T) {
	searcher := &fakeSearcher{}
	d := NewInlineDispatcher(searcher, 5, zap.NewNop())

	results, err := d.Dispatch(context.Background(), "sess-1", allQueries())
	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, cat := range models.Categories {
		assert.Empty(t, results[cat].Response.Error)
		assert.Equal(t, "query for "+string(cat), results[cat].Query)
	}
	// Forum categories used the forums engine.
	assert.Equal(t, "google_forums", searcher.engines[models.CategoryAudience])
	assert.Equal(t, "google", searcher.engines[models.CategoryProduct])
}

func TestInlineDispatchPartialFailure(t *testing.T) {
	searcher := &fakeSearcher{fail: map[models.Category]bool{models.CategoryCompetitor: true}}
	d := NewInlineDispatcher(searcher, 5, zap.NewNop())

	results, err := d.Dispatch(context.Background(), "sess-1", allQueries())
	require.NoError(t, err)
	assert.NotEmpty(t, results[models.CategoryCompetitor].Response.Error)
	assert.Empty(t, results[models.CategoryProduct].Response.Error)
}

func TestInlineDispatchAllFailed(t *testing.T) {
	fail := make(map[models.Category]bool)
	for _, cat := range models.Categories {
		fail[cat] = true
	}
	d := NewInlineDispatcher(&fakeSearcher{fail: fail}, 5, zap.NewNop())

	results, err := d.Dispatch(context.Background(), "sess-1", allQueries())
	assert.ErrorIs(t, err, ErrAllSearchesFailed)
	assert.Len(t, results, 5)
}

func TestInlineDispatchSkipsEmptyQueries(t *testing.T) {
	d := NewInlineDispatcher(&fakeSearcher{}, 5, zap.NewNop())

	queries := map[models.Category]string{
		models.CategoryProduct:  "query for product",
		models.CategoryAudience: "",
	}
	results, err := d.Dispatch(context.Background(), "sess-1", queries)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	_, present := results[models.CategoryAudience]
	assert.False(t, present)
}

// fakeQueue is an in-memory TaskQueue whose tasks complete after a
// configurable number of polls.
type fakeQueue struct {
	mu        sync.Mutex
	nextID    int
	tasks     map[string]SearchTaskArgs
	pollsLeft map[string]int
	failTask  map[models.Category]bool
	never     map[models.Category]bool
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{
		tasks:     make(map[string]SearchTaskArgs),
		pollsLeft: make(map[string]int),
		failTask:  make(map[models.Category]bool),
		never:     make(map[models.Category]bool),
	}
}

func (q *fakeQueue) Submit(ctx context.Context, name string, args interface{}) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	id := fmt.Sprintf("task-%d", q.nextID)
	q.tasks[id] = args.(SearchTaskArgs)
	q.pollsLeft[id] = 1
	return id, nil
}

func (q *fakeQueue) Result(ctx context.Context, taskID string) (taskqueue.TaskStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	args := q.tasks[taskID]
	if q.never[args.Category] {
		return taskqueue.TaskStatus{Ready: false}, nil
	}
	if q.pollsLeft[taskID] > 0 {
		q.pollsLeft[taskID]--
		return taskqueue.TaskStatus{Ready: false}, nil
	}
	if q.failTask[args.Category] {
		return taskqueue.TaskStatus{Ready: true, Successful: false, Error: "worker crashed"}, nil
	}
	payload, _ := json.Marshal(models.SearchResponse{
		OrganicResults: []models.RawOrganic{{Title: "hit for " + string(args.Category)}},
	})
	return taskqueue.TaskStatus{Ready: true, Successful: true, Payload: payload}, nil
}

func TestQueuedDispatchGathersResults(t *testing.T) {
	q := newFakeQueue()
	var savedSession string
	var savedIDs map[string]string
	saver := func(ctx context.Context, sessionID string, ids map[string]string) error {
		savedSession = sessionID
		savedIDs = ids
		return nil
	}

	d := NewQueuedDispatcher(q, saver, time.Second, 5*time.Millisecond, zap.NewNop())
	results, err := d.Dispatch(context.Background(), "sess-9", allQueries())
	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, cat := range models.Categories {
		assert.Empty(t, results[cat].Response.Error, string(cat))
	}

	assert.Equal(t, "sess-9", savedSession)
	assert.Len(t, savedIDs, 5)
}

func TestQueuedDispatchTimeout(t *testing.T) {
	q := newFakeQueue()
	q.never[models.CategoryPlatform] = true

	d := NewQueuedDispatcher(q, nil, 30*time.Millisecond, 5*time.Millisecond, zap.NewNop())
	results, err := d.Dispatch(context.Background(), "sess-9", allQueries())
	require.NoError(t, err)

	assert.Contains(t, results[models.CategoryPlatform].Response.Error, "timed out")
	assert.Empty(t, results[models.CategoryProduct].Response.Error)
}

func TestQueuedDispatchTaskFailure(t *testing.T) {
	q := newFakeQueue()
	q.failTask[models.CategoryCampaign] = true

	d := NewQueuedDispatcher(q, nil, time.Second, 5*time.Millisecond, zap.NewNop())
	results, err := d.Dispatch(context.Background(), "sess-9", allQueries())
	require.NoError(t, err)
	assert.Contains(t, results[models.CategoryCampaign].Response.Error, "worker crashed")
}

func TestQueuedDispatchAllTimeout(t *testing.T) {
	q := newFakeQueue()
	for _, cat := range models.Categories {
		q.never[cat] = true
	}

	d := NewQueuedDispatcher(q, nil, 20*time.Millisecond, 5*time.Millisecond, zap.NewNop())
	results, err := d.Dispatch(context.Background(), "sess-9", allQueries())
	assert.ErrorIs(t, err, ErrAllSearchesFailed)
	assert.Len(t, results, 5)
}

func TestSearchHandlerRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	q := taskqueue.NewQueue(circuitbreaker.NewRedisWrapper(client, zap.NewNop()), zap.NewNop())
	w := taskqueue.NewWorker(q, zap.NewNop())
	RegisterSearchHandler(w, &fakeSearcher{})

	ctx := context.Background()
	taskID, err := q.Submit(ctx, SearchTaskName, SearchTaskArgs{
		Category: models.CategoryProduct,
		Query:    "query for product",
		Engine:   "google",
	})
	require.NoError(t, err)

	processed, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, processed)

	status, err := q.Result(ctx, taskID)
	require.NoError(t, err)
	require.True(t, status.Ready)
	require.True(t, status.Successful)

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(status.Payload, &resp))
	require.Len(t, resp.OrganicResults, 1)
	assert.Equal(t, "hit for product", resp.OrganicResults[0].Title)
}

func TestSearchHandlerProviderFailureIsPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	fail := map[models.Category]bool{models.CategoryProduct: true}
	q := taskqueue.NewQueue(circuitbreaker.NewRedisWrapper(client, zap.NewNop()), zap.NewNop())
	w := taskqueue.NewWorker(q, zap.NewNop())
	RegisterSearchHandler(w, &fakeSearcher{fail: fail})

	ctx := context.Background()
	taskID, err := q.Submit(ctx, SearchTaskName, SearchTaskArgs{
		Category: models.CategoryProduct,
		Query:    "query for product",
		Engine:   "google",
	})
	require.NoError(t, err)

	processed, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, processed)

	status, err := q.Result(ctx, taskID)
	require.NoError(t, err)
	require.True(t, status.Ready)
	// The task itself succeeded; the provider error rides the payload.
	require.True(t, status.Successful)

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(status.Payload, &resp))
	assert.Contains(t, resp.Error, "unreachable")
}
