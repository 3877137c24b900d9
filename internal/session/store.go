package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/models"
)

// Store persists sessions in Postgres. Pipeline artifacts live in JSONB
// columns so partial results survive a crash at any stage.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStore creates a session store over an existing connection pool.
func NewStore(db *sqlx.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Connect opens a Postgres pool with sane limits.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// sessionRow mirrors the research_sessions table.
type sessionRow struct {
	ID               string         `db:"id"`
	ThreadID         string         `db:"thread_id"`
	UserID           sql.NullString `db:"user_id"`
	Status           string         `db:"status"`
	Brief            []byte         `db:"brief"`
	Plan             []byte         `db:"plan"`
	SearchResults    []byte         `db:"search_results"`
	ProcessedResults []byte         `db:"processed_results"`
	Report           []byte         `db:"report"`
	ResourcesUsed    []byte         `db:"resources_used"`
	TaskIDs          []byte         `db:"task_ids"`
	ErrorMessage     sql.NullString `db:"error_message"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	CompletedAt      sql.NullTime   `db:"completed_at"`
}

const sessionColumns = `id, thread_id, user_id, status, brief, plan, search_results,
	processed_results, report, resources_used, task_ids, error_message,
	created_at, updated_at, completed_at`

// Insert stores a freshly created session.
func (s *Store) Insert(ctx context.Context, sess *Session) error {
	brief, err := json.Marshal(sess.Brief)
	if err != nil {
		return fmt.Errorf("marshal brief: %w", err)
	}

	query := `
		INSERT INTO research_sessions (id, thread_id, user_id, status, brief, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)`
	_, err = s.db.ExecContext(ctx, query,
		sess.ID, sess.ThreadID, sess.UserID, string(sess.Status), brief, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get loads one session by ID.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	var row sessionRow
	query := `SELECT ` + sessionColumns + ` FROM research_sessions WHERE id = $1`
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return row.toSession()
}

// GetActiveByThread returns the thread's non-terminal session, if any.
func (s *Store) GetActiveByThread(ctx context.Context, threadID string) (*Session, error) {
	var row sessionRow
	query := `SELECT ` + sessionColumns + `
		FROM research_sessions
		WHERE thread_id = $1 AND status NOT IN ('completed', 'failed')
		ORDER BY created_at DESC
		LIMIT 1`
	if err := s.db.GetContext(ctx, &row, query, threadID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return row.toSession()
}

// GetByThread returns the thread's most recent session in any status.
func (s *Store) GetByThread(ctx context.Context, threadID string) (*Session, error) {
	var row sessionRow
	query := `SELECT ` + sessionColumns + `
		FROM research_sessions
		WHERE thread_id = $1
		ORDER BY created_at DESC
		LIMIT 1`
	if err := s.db.GetContext(ctx, &row, query, threadID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session by thread: %w", err)
	}
	return row.toSession()
}

// UpdateStatus writes the new status. Terminal statuses also stamp
// completed_at. Transition legality is the manager's job.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error {
	now := time.Now().UTC()
	var completedAt sql.NullTime
	if status.IsTerminal() {
		completedAt = sql.NullTime{Time: now, Valid: true}
	}

	query := `
		UPDATE research_sessions
		SET status = $2, error_message = NULLIF($3, ''), updated_at = $4,
		    completed_at = COALESCE($5, completed_at)
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, id, string(status), errMsg, now, completedAt)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return checkAffected(res)
}

// SavePlan stores the search plan.
func (s *Store) SavePlan(ctx context.Context, id string, plan *models.SearchPlan) error {
	return s.saveJSON(ctx, id, "plan", plan)
}

// SaveSearchResults stores the raw dispatch output.
func (s *Store) SaveSearchResults(ctx context.Context, id string, raw *models.RawResults) error {
	return s.saveJSON(ctx, id, "search_results", raw)
}

// SaveProcessedResults stores the normalized insights.
func (s *Store) SaveProcessedResults(ctx context.Context, id string, processed *models.ProcessedResults) error {
	return s.saveJSON(ctx, id, "processed_results", processed)
}

// SaveReport stores the synthesized report.
func (s *Store) SaveReport(ctx context.Context, id string, report *models.ResearchReport) error {
	return s.saveJSON(ctx, id, "report", report)
}

// SaveResourcesUsed stores the citation index.
func (s *Store) SaveResourcesUsed(ctx context.Context, id string, resources *models.ResourcesUsed) error {
	return s.saveJSON(ctx, id, "resources_used", resources)
}

// SaveTaskIDs stores the category-to-task-ID map for queued dispatch.
func (s *Store) SaveTaskIDs(ctx context.Context, id string, taskIDs map[string]string) error {
	return s.saveJSON(ctx, id, "task_ids", taskIDs)
}

func (s *Store) saveJSON(ctx context.Context, id, column string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", column, err)
	}
	// column is always one of our own constants, never user input.
	query := fmt.Sprintf(`UPDATE research_sessions SET %s = $2, updated_at = $3 WHERE id = $1`, column)
	res, err := s.db.ExecContext(ctx, query, id, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save %s: %w", column, err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *sessionRow) toSession() (*Session, error) {
	sess := &Session{
		ID:        r.ID,
		ThreadID:  r.ThreadID,
		Status:    Status(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.UserID.Valid {
		sess.UserID = r.UserID.String
	}
	if r.ErrorMessage.Valid {
		sess.ErrorMessage = r.ErrorMessage.String
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		sess.CompletedAt = &t
	}

	if err := unmarshalInto(r.Brief, &sess.Brief); err != nil {
		return nil, fmt.Errorf("decode brief: %w", err)
	}
	for _, f := range []struct {
		data []byte
		dst  interface{}
	}{
		{r.Plan, &sess.Plan},
		{r.SearchResults, &sess.SearchResults},
		{r.ProcessedResults, &sess.ProcessedResults},
		{r.Report, &sess.Report},
		{r.ResourcesUsed, &sess.ResourcesUsed},
		{r.TaskIDs, &sess.TaskIDs},
	} {
		if err := unmarshalInto(f.data, f.dst); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", r.ID, err)
		}
	}
	return sess, nil
}

func unmarshalInto(data []byte, dst interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
