package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/analysis"
	"github.com/advista-ai/orchestrator/internal/circuitbreaker"
	"github.com/advista-ai/orchestrator/internal/config"
	"github.com/advista-ai/orchestrator/internal/dispatch"
	"github.com/advista-ai/orchestrator/internal/health"
	"github.com/advista-ai/orchestrator/internal/llm"
	"github.com/advista-ai/orchestrator/internal/planner"
	"github.com/advista-ai/orchestrator/internal/research"
	"github.com/advista-ai/orchestrator/internal/search"
	"github.com/advista-ai/orchestrator/internal/server"
	"github.com/advista-ai/orchestrator/internal/session"
	"github.com/advista-ai/orchestrator/internal/synthesis"
	"github.com/advista-ai/orchestrator/internal/taskqueue"
	"github.com/advista-ai/orchestrator/internal/video"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := session.Connect(cfg.Postgres.DSN())
	if err != nil {
		logger.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisWrapper := circuitbreaker.NewRedisWrapper(redisClient, logger)
	defer redisWrapper.Close()

	store := session.NewStore(db, logger)
	sessions := session.NewManager(store, redisWrapper, logger)

	keyPool, err := llm.NewKeyPool(cfg.LLM.APIKeys)
	if err != nil {
		logger.Fatal("No LLM API keys configured", zap.Error(err))
	}
	llmClient := llm.NewClient(cfg.LLM, keyPool, logger)

	searchClient := search.NewClient(cfg.Search, logger)
	transcripts := video.NewTranscriptClient(cfg.Search.TranscriptBase, logger)
	videoService := video.NewService(searchClient, transcripts, cfg.Video, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := buildDispatcher(ctx, cfg, searchClient, redisWrapper, sessions, logger)

	var dumper *research.DebugDumper
	if cfg.Debug.EnableFileDumps {
		dumper = research.NewDebugDumper(cfg.Debug.DumpDir, logger)
	}

	pipeline := research.NewPipeline(
		sessions,
		planner.New(llmClient, logger),
		dispatcher,
		videoService,
		analysis.NewNormalizer(logger),
		synthesis.New(llmClient, logger),
		dumper,
		logger,
	)

	httpServer := server.New(sessions, pipeline, 0, logger)

	ops := health.NewHandler(logger)
	ops.RegisterPostgres(db)
	ops.RegisterRedis(redisWrapper)

	errCh := make(chan error, 2)
	go func() { errCh <- httpServer.ListenAndServe(ctx, cfg.Server.Port) }()
	go func() { errCh <- ops.ListenAndServe(ctx, cfg.Server.MetricsPort) }()

	logger.Info("Orchestrator started",
		zap.Int("port", cfg.Server.Port),
		zap.Int("metrics_port", cfg.Server.MetricsPort),
		zap.String("dispatch_mode", cfg.Dispatch.Mode),
	)

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server exited", zap.Error(err))
		}
	}
	pipeline.WaitDetached()
}

// buildDispatcher picks the dispatch strategy. Queued mode also starts
// an embedded task worker so a single process can drain its own queue.
func buildDispatcher(ctx context.Context, cfg *config.Config, searchClient *search.Client, redisWrapper *circuitbreaker.RedisWrapper, sessions *session.Manager, logger *zap.Logger) dispatch.Dispatcher {
	if cfg.Dispatch.Mode != config.DispatchModeQueued {
		return dispatch.NewInlineDispatcher(searchClient, cfg.Dispatch.Workers, logger)
	}

	queue := taskqueue.NewQueue(redisWrapper, logger)
	worker := taskqueue.NewWorker(queue, logger)
	dispatch.RegisterSearchHandler(worker, searchClient)
	go func() {
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Task worker exited", zap.Error(err))
		}
	}()

	saver := func(ctx context.Context, sessionID string, taskIDs map[string]string) error {
		return sessions.SaveTaskIDs(ctx, sessionID, taskIDs)
	}
	return dispatch.NewQueuedDispatcher(queue, saver, cfg.Dispatch.MaxWait, cfg.Dispatch.PollInterval, logger)
}

func newLogger() *zap.Logger {
	var logger *zap.Logger
	var err error
	if os.Getenv("ENVIRONMENT") == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
