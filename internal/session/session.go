package session

import (
	"errors"
	"time"

	"github.com/advista-ai/orchestrator/internal/models"
)

var (
	// ErrSessionNotFound indicates no session exists for the given ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidTransition indicates a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrThreadBusy indicates the thread already has a session in flight.
	ErrThreadBusy = errors.New("thread already has an active research session")
)

// Session is one research run: the brief it started from, where the
// pipeline has gotten to, and every artifact produced along the way.
type Session struct {
	ID       string `json:"id" db:"id"`
	ThreadID string `json:"thread_id" db:"thread_id"`
	UserID   string `json:"user_id,omitempty" db:"user_id"`
	Status   Status `json:"status" db:"status"`

	Brief            models.ResearchBrief     `json:"brief"`
	Plan             *models.SearchPlan       `json:"plan,omitempty"`
	SearchResults    *models.RawResults       `json:"search_results,omitempty"`
	ProcessedResults *models.ProcessedResults `json:"processed_results,omitempty"`
	Report           *models.ResearchReport   `json:"report,omitempty"`
	ResourcesUsed    *models.ResourcesUsed    `json:"resources_used,omitempty"`

	// TaskIDs maps categories to queue task IDs in queued dispatch mode.
	TaskIDs map[string]string `json:"task_ids,omitempty"`

	ErrorMessage string     `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Active reports whether the session still occupies its thread.
func (s *Session) Active() bool {
	return !s.Status.IsTerminal()
}
