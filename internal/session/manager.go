package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/circuitbreaker"
	"github.com/advista-ai/orchestrator/internal/metrics"
	"github.com/advista-ai/orchestrator/internal/models"
)

const (
	cacheKeyPrefix = "advista:session:"
	redisCacheTTL  = 10 * time.Minute
	localCacheTTL  = 30 * time.Second
)

// Storage is the persistence surface the manager drives.
type Storage interface {
	Insert(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	GetActiveByThread(ctx context.Context, threadID string) (*Session, error)
	GetByThread(ctx context.Context, threadID string) (*Session, error)
	UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error
	SavePlan(ctx context.Context, id string, plan *models.SearchPlan) error
	SaveSearchResults(ctx context.Context, id string, raw *models.RawResults) error
	SaveProcessedResults(ctx context.Context, id string, processed *models.ProcessedResults) error
	SaveReport(ctx context.Context, id string, report *models.ResearchReport) error
	SaveResourcesUsed(ctx context.Context, id string, resources *models.ResourcesUsed) error
	SaveTaskIDs(ctx context.Context, id string, taskIDs map[string]string) error
}

type localEntry struct {
	sess    *Session
	expires time.Time
}

// Manager owns session lifecycle: creation, the status state machine,
// and artifact persistence. Reads go through a small local cache backed
// by Redis; Postgres stays the source of truth.
type Manager struct {
	store  Storage
	redis  *circuitbreaker.RedisWrapper
	logger *zap.Logger

	mu    sync.RWMutex
	local map[string]localEntry
}

// NewManager creates a session manager. redis may be nil; caching then
// degrades to the in-process map.
func NewManager(store Storage, redis *circuitbreaker.RedisWrapper, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		redis:  redis,
		logger: logger,
		local:  make(map[string]localEntry),
	}
}

// Create starts a new session for a thread. A thread can only run one
// session at a time; a second start is rejected with ErrThreadBusy.
func (m *Manager) Create(ctx context.Context, threadID, userID string, brief models.ResearchBrief) (*Session, error) {
	if threadID == "" {
		return nil, errors.New("thread_id is required")
	}

	existing, err := m.store.GetActiveByThread(ctx, threadID)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("check active session: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: session %s is %s", ErrThreadBusy, existing.ID, existing.Status)
	}

	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.New().String(),
		ThreadID:  threadID,
		UserID:    userID,
		Status:    StatusPending,
		Brief:     brief,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Insert(ctx, sess); err != nil {
		return nil, err
	}

	metrics.SessionsCreated.Inc()
	m.cache(sess)
	m.logger.Info("Session created",
		zap.String("session_id", sess.ID),
		zap.String("thread_id", threadID),
	)
	return sess, nil
}

// Get loads a session, preferring the caches.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if sess := m.fromLocal(id); sess != nil {
		metrics.SessionCacheHits.Inc()
		return sess, nil
	}
	if sess := m.fromRedis(ctx, id); sess != nil {
		metrics.SessionCacheHits.Inc()
		m.cacheLocal(sess)
		return sess, nil
	}
	metrics.SessionCacheMisses.Inc()

	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.cache(sess)
	return sess, nil
}

// GetActiveByThread returns the thread's in-flight session, if any.
func (m *Manager) GetActiveByThread(ctx context.Context, threadID string) (*Session, error) {
	return m.store.GetActiveByThread(ctx, threadID)
}

// GetByThread returns the thread's most recent session in any status.
func (m *Manager) GetByThread(ctx context.Context, threadID string) (*Session, error) {
	return m.store.GetByThread(ctx, threadID)
}

// UpdateStatus advances the state machine. Illegal transitions are
// rejected with ErrInvalidTransition and change nothing.
func (m *Manager) UpdateStatus(ctx context.Context, id string, to Status, errMsg string) error {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	from := sess.Status
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	if err := m.store.UpdateStatus(ctx, id, to, errMsg); err != nil {
		return err
	}

	metrics.SessionStatusTransitions.WithLabelValues(string(from), string(to)).Inc()
	if to.IsTerminal() {
		metrics.SessionsCompleted.WithLabelValues(string(to)).Inc()
	}
	m.invalidate(ctx, id)
	m.logger.Info("Session status updated",
		zap.String("session_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return nil
}

// SavePlan persists the search plan.
func (m *Manager) SavePlan(ctx context.Context, id string, plan *models.SearchPlan) error {
	if err := m.store.SavePlan(ctx, id, plan); err != nil {
		return err
	}
	m.invalidate(ctx, id)
	return nil
}

// SaveSearchResults persists the raw dispatch output.
func (m *Manager) SaveSearchResults(ctx context.Context, id string, raw *models.RawResults) error {
	if err := m.store.SaveSearchResults(ctx, id, raw); err != nil {
		return err
	}
	m.invalidate(ctx, id)
	return nil
}

// SaveProcessedResults persists the normalized insights.
func (m *Manager) SaveProcessedResults(ctx context.Context, id string, processed *models.ProcessedResults) error {
	if err := m.store.SaveProcessedResults(ctx, id, processed); err != nil {
		return err
	}
	m.invalidate(ctx, id)
	return nil
}

// SaveReport persists the synthesized report.
func (m *Manager) SaveReport(ctx context.Context, id string, report *models.ResearchReport) error {
	if err := m.store.SaveReport(ctx, id, report); err != nil {
		return err
	}
	m.invalidate(ctx, id)
	return nil
}

// SaveResourcesUsed persists the citation index.
func (m *Manager) SaveResourcesUsed(ctx context.Context, id string, resources *models.ResourcesUsed) error {
	if err := m.store.SaveResourcesUsed(ctx, id, resources); err != nil {
		return err
	}
	m.invalidate(ctx, id)
	return nil
}

// SaveTaskIDs persists queued-dispatch task IDs.
func (m *Manager) SaveTaskIDs(ctx context.Context, id string, taskIDs map[string]string) error {
	if err := m.store.SaveTaskIDs(ctx, id, taskIDs); err != nil {
		return err
	}
	m.invalidate(ctx, id)
	return nil
}

func (m *Manager) fromLocal(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.local[id]
	if !ok || time.Now().After(entry.expires) {
		return nil
	}
	return entry.sess
}

func (m *Manager) fromRedis(ctx context.Context, id string) *Session {
	if m.redis == nil {
		return nil
	}
	raw, err := m.redis.Get(ctx, cacheKeyPrefix+id).Result()
	if err != nil {
		return nil
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		m.logger.Warn("Dropping undecodable cached session",
			zap.String("session_id", id),
			zap.Error(err),
		)
		return nil
	}
	return &sess
}

func (m *Manager) cache(sess *Session) {
	m.cacheLocal(sess)
	if m.redis == nil {
		return
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return
	}
	// Best effort; a cache write failure is not a session failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.redis.Set(ctx, cacheKeyPrefix+sess.ID, payload, redisCacheTTL).Err(); err != nil {
		m.logger.Debug("Session cache write failed", zap.Error(err))
	}
}

func (m *Manager) cacheLocal(sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.local[sess.ID] = localEntry{sess: sess, expires: time.Now().Add(localCacheTTL)}
}

func (m *Manager) invalidate(ctx context.Context, id string) {
	m.mu.Lock()
	delete(m.local, id)
	m.mu.Unlock()
	if m.redis != nil {
		if err := m.redis.Del(ctx, cacheKeyPrefix+id).Err(); err != nil {
			m.logger.Debug("Session cache invalidation failed", zap.Error(err))
		}
	}
}
