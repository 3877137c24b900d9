package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/circuitbreaker"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// Handler serves liveness, readiness, and metrics on the ops port.
type Handler struct {
	checks map[string]Check
	logger *zap.Logger
}

// NewHandler creates a health handler with no checks registered.
func NewHandler(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{checks: make(map[string]Check), logger: logger}
}

// Register adds a named dependency check.
func (h *Handler) Register(name string, check Check) {
	h.checks[name] = check
}

// RegisterPostgres adds a ping check for the database pool.
func (h *Handler) RegisterPostgres(db *sqlx.DB) {
	h.Register("postgres", func(ctx context.Context) error {
		return db.PingContext(ctx)
	})
}

// RegisterRedis adds a ping check for the Redis wrapper.
func (h *Handler) RegisterRedis(rw *circuitbreaker.RedisWrapper) {
	h.Register("redis", func(ctx context.Context) error {
		return rw.Ping(ctx).Err()
	})
}

type checkResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Mux builds the ops route table: /health, /ready, /metrics.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/ready", h.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleReady runs every registered check; any failure makes the whole
// endpoint report 503 so load balancers stop routing work here.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	results := make(map[string]checkResult, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			healthy = false
			results[name] = checkResult{Status: "unhealthy", Error: err.Error()}
			h.logger.Warn("Readiness check failed",
				zap.String("check", name),
				zap.Error(err),
			)
			continue
		}
		results[name] = checkResult{Status: "ok"}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(results)
}

// ListenAndServe runs the ops server until ctx is cancelled.
func (h *Handler) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: h.Mux(),
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("Ops server listening", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
