package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/models"
	"github.com/advista-ai/orchestrator/internal/session"
)

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	busy     bool
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]*session.Session)}
}

func (f *fakeSessions) Create(ctx context.Context, threadID, userID string, brief models.ResearchBrief) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return nil, session.ErrThreadBusy
	}
	sess := &session.Session{
		ID:       "sess-1",
		ThreadID: threadID,
		UserID:   userID,
		Status:   session.StatusPending,
		Brief:    brief,
	}
	f.sessions[sess.ID] = sess
	return sess, nil
}

func (f *fakeSessions) Get(ctx context.Context, id string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

func (f *fakeSessions) GetActiveByThread(ctx context.Context, threadID string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sess := range f.sessions {
		if sess.ThreadID == threadID && sess.Active() {
			return sess, nil
		}
	}
	return nil, session.ErrSessionNotFound
}

func (f *fakeSessions) GetByThread(ctx context.Context, threadID string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *session.Session
	for _, sess := range f.sessions {
		if sess.ThreadID != threadID {
			continue
		}
		if latest == nil || sess.CreatedAt.After(latest.CreatedAt) {
			latest = sess
		}
	}
	if latest == nil {
		return nil, session.ErrSessionNotFound
	}
	return latest, nil
}

type fakeStarter struct {
	mu      sync.Mutex
	started []string
}

func (f *fakeStarter) Start(sessionID string, timeout time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, sessionID)
}

func completeBrief() models.ResearchBrief {
	return models.ResearchBrief{
		ProductName:     "TrailBlazer",
		TargetAudience:  "trail runners",
		CampaignGoals:   "brand awareness",
		CompetitorNames: []string{"Acme"},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeSessions, *fakeStarter) {
	t.Helper()
	sessions := newFakeSessions()
	starter := &fakeStarter{}
	srv := New(sessions, starter, time.Minute, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, sessions, starter
}

func postStart(t *testing.T, url string, req startRequest) *http.Response {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(url+"/research/start", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStartResearch(t *testing.T) {
	ts, _, starter := newTestServer(t)

	resp := postStart(t, ts.URL, startRequest{ThreadID: "thread-1", Brief: completeBrief()})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var out startResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "sess-1", out.SessionID)
	assert.Equal(t, "pending", out.Status)
	assert.Equal(t, []string{"sess-1"}, starter.started)
}

func TestStartRejectsIncompleteBrief(t *testing.T) {
	ts, _, starter := newTestServer(t)

	resp := postStart(t, ts.URL, startRequest{
		ThreadID: "thread-1",
		Brief:    models.ResearchBrief{ProductName: "TrailBlazer"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var out startResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "incomplete_brief", out.Status)
	assert.NotEmpty(t, out.Missing)
	assert.Empty(t, starter.started)
}

func TestStartRejectsBusyThread(t *testing.T) {
	ts, sessions, _ := newTestServer(t)
	sessions.busy = true

	resp := postStart(t, ts.URL, startRequest{ThreadID: "thread-1", Brief: completeBrief()})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestStartRequiresThreadID(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp := postStart(t, ts.URL, startRequest{Brief: completeBrief()})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetSession(t *testing.T) {
	ts, sessions, _ := newTestServer(t)
	sessions.sessions["sess-1"] = &session.Session{ID: "sess-1", Status: session.StatusResearching}

	resp, err := http.Get(ts.URL + "/research/sessions/sess-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out session.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, session.StatusResearching, out.Status)
}

func TestGetSessionNotFound(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/research/sessions/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetReportPending(t *testing.T) {
	ts, sessions, _ := newTestServer(t)
	sessions.sessions["sess-1"] = &session.Session{ID: "sess-1", Status: session.StatusSynthesizing}

	resp, err := http.Get(ts.URL + "/research/sessions/sess-1/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var out reportResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "synthesizing", out.Status)
	assert.Nil(t, out.Report)
}

func TestGetReportCompleted(t *testing.T) {
	ts, sessions, _ := newTestServer(t)
	sessions.sessions["sess-1"] = &session.Session{
		ID:     "sess-1",
		Status: session.StatusCompleted,
		Report: &models.ResearchReport{ExecutiveSummary: "all set"},
	}

	resp, err := http.Get(ts.URL + "/research/sessions/sess-1/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out reportResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotNil(t, out.Report)
	assert.Equal(t, "all set", out.Report.ExecutiveSummary)
}

func TestGetReportFailed(t *testing.T) {
	ts, sessions, _ := newTestServer(t)
	sessions.sessions["sess-1"] = &session.Session{
		ID:           "sess-1",
		Status:       session.StatusFailed,
		ErrorMessage: "all searches failed",
	}

	resp, err := http.Get(ts.URL + "/research/sessions/sess-1/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out reportResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "failed", out.Status)
	assert.Equal(t, "all searches failed", out.Error)
}

func TestGetActiveByThread(t *testing.T) {
	ts, sessions, _ := newTestServer(t)
	sessions.sessions["sess-1"] = &session.Session{ID: "sess-1", ThreadID: "thread-1", Status: session.StatusResearching}

	resp, err := http.Get(ts.URL + "/research/threads/thread-1/active")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(ts.URL + "/research/threads/thread-2/active")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestGetLatestByThread(t *testing.T) {
	ts, sessions, _ := newTestServer(t)
	sessions.sessions["sess-1"] = &session.Session{
		ID:        "sess-1",
		ThreadID:  "thread-1",
		Status:    session.StatusCompleted,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	sessions.sessions["sess-2"] = &session.Session{
		ID:        "sess-2",
		ThreadID:  "thread-1",
		Status:    session.StatusFailed,
		CreatedAt: time.Now(),
	}

	resp, err := http.Get(ts.URL + "/research/threads/thread-1/latest")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out session.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "sess-2", out.ID)

	resp2, err := http.Get(ts.URL + "/research/threads/thread-2/latest")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
