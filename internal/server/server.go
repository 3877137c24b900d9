package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/models"
	"github.com/advista-ai/orchestrator/internal/session"
)

// SessionAPI is the slice of the session manager the HTTP surface uses.
type SessionAPI interface {
	Create(ctx context.Context, threadID, userID string, brief models.ResearchBrief) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	GetActiveByThread(ctx context.Context, threadID string) (*session.Session, error)
	GetByThread(ctx context.Context, threadID string) (*session.Session, error)
}

// PipelineStarter launches the research pipeline for a session.
type PipelineStarter interface {
	Start(sessionID string, timeout time.Duration)
}

// Server is the orchestrator's HTTP surface.
type Server struct {
	sessions        SessionAPI
	pipeline        PipelineStarter
	pipelineTimeout time.Duration
	logger          *zap.Logger
}

// New creates the HTTP server.
func New(sessions SessionAPI, pipeline PipelineStarter, pipelineTimeout time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pipelineTimeout <= 0 {
		pipelineTimeout = 10 * time.Minute
	}
	return &Server{
		sessions:        sessions,
		pipeline:        pipeline,
		pipelineTimeout: pipelineTimeout,
		logger:          logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /research/start", s.handleStart)
	mux.HandleFunc("GET /research/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("GET /research/sessions/{id}/report", s.handleGetReport)
	mux.HandleFunc("GET /research/threads/{thread_id}/active", s.handleGetActive)
	mux.HandleFunc("GET /research/threads/{thread_id}/latest", s.handleGetLatest)
	return s.logRequests(mux)
}

type startRequest struct {
	ThreadID string               `json:"thread_id"`
	UserID   string               `json:"user_id,omitempty"`
	Brief    models.ResearchBrief `json:"brief"`
}

type startResponse struct {
	SessionID  string   `json:"session_id"`
	Status     string   `json:"status"`
	Message    string   `json:"message,omitempty"`
	Missing    []string `json:"missing_fields,omitempty"`
	Completion float64  `json:"brief_completion_percent,omitempty"`
}

// handleStart validates the brief, creates the session, and kicks off
// the pipeline. The response returns immediately; progress is polled
// through the session endpoints.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ThreadID == "" {
		s.writeError(w, http.StatusBadRequest, "thread_id is required")
		return
	}
	if !req.Brief.IsComplete() {
		s.writeJSON(w, http.StatusUnprocessableEntity, startResponse{
			Status:     "incomplete_brief",
			Message:    "the brief needs more detail before research can start",
			Missing:    req.Brief.MissingFields(),
			Completion: req.Brief.CompletionPercentage(),
		})
		return
	}

	sess, err := s.sessions.Create(r.Context(), req.ThreadID, req.UserID, req.Brief)
	if err != nil {
		if errors.Is(err, session.ErrThreadBusy) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error("Session creation failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	s.pipeline.Start(sess.ID, s.pipelineTimeout)

	s.writeJSON(w, http.StatusAccepted, startResponse{
		SessionID: sess.ID,
		Status:    string(sess.Status),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

type reportResponse struct {
	SessionID string                 `json:"session_id"`
	Status    string                 `json:"status"`
	Report    *models.ResearchReport `json:"report,omitempty"`
	Resources *models.ResourcesUsed  `json:"resources_used,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// handleGetReport returns the report once the session completes. Before
// that it reports the current stage so clients can keep polling.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	resp := reportResponse{SessionID: sess.ID, Status: string(sess.Status)}
	switch sess.Status {
	case session.StatusCompleted:
		resp.Report = sess.Report
		resp.Resources = sess.ResourcesUsed
		s.writeJSON(w, http.StatusOK, resp)
	case session.StatusFailed:
		resp.Error = sess.ErrorMessage
		s.writeJSON(w, http.StatusOK, resp)
	default:
		s.writeJSON(w, http.StatusAccepted, resp)
	}
}

func (s *Server) handleGetActive(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("thread_id")
	sess, err := s.sessions.GetActiveByThread(r.Context(), threadID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "no active session for thread")
			return
		}
		s.logger.Error("Active session lookup failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleGetLatest(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("thread_id")
	sess, err := s.sessions.GetByThread(r.Context(), threadID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "no sessions for thread")
			return
		}
		s.logger.Error("Thread session lookup failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := r.PathValue("id")
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "session not found")
			return nil, false
		}
		s.logger.Error("Session lookup failed",
			zap.String("session_id", id),
			zap.Error(err),
		)
		s.writeError(w, http.StatusInternalServerError, "lookup failed")
		return nil, false
	}
	return sess, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Response encoding failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)),
		)
	})
}

// ListenAndServe runs the HTTP server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
