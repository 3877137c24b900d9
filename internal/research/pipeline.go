package research

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/analysis"
	"github.com/advista-ai/orchestrator/internal/dispatch"
	"github.com/advista-ai/orchestrator/internal/metrics"
	"github.com/advista-ai/orchestrator/internal/models"
	"github.com/advista-ai/orchestrator/internal/session"
)

// Sessions is the slice of the session manager the pipeline drives.
type Sessions interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	UpdateStatus(ctx context.Context, id string, to session.Status, errMsg string) error
	SavePlan(ctx context.Context, id string, plan *models.SearchPlan) error
	SaveSearchResults(ctx context.Context, id string, raw *models.RawResults) error
	SaveProcessedResults(ctx context.Context, id string, processed *models.ProcessedResults) error
	SaveReport(ctx context.Context, id string, report *models.ResearchReport) error
	SaveResourcesUsed(ctx context.Context, id string, resources *models.ResourcesUsed) error
}

// Planner derives search queries from a brief.
type Planner interface {
	Plan(ctx context.Context, brief models.ResearchBrief) (*models.SearchPlan, error)
}

// VideoResearcher runs the video research unit.
type VideoResearcher interface {
	Research(ctx context.Context, query string) *models.VideoResearch
}

// Normalizer cleans raw payloads into insights.
type Normalizer interface {
	Process(raw *models.RawResults) *models.ProcessedResults
}

// Synthesizer produces the final report.
type Synthesizer interface {
	Synthesize(ctx context.Context, brief models.ResearchBrief, processed *models.ProcessedResults) *models.ResearchReport
}

// Pipeline runs a research session end to end:
// plan -> dispatch (searches plus video in parallel) -> normalize ->
// synthesize, advancing the session status at each stage boundary.
type Pipeline struct {
	sessions    Sessions
	planner     Planner
	dispatcher  dispatch.Dispatcher
	video       VideoResearcher
	normalizer  Normalizer
	synthesizer Synthesizer
	dumper      *DebugDumper
	logger      *zap.Logger

	// detached tracks fire-and-forget work (debug dumps) so tests and
	// shutdown can wait for it.
	detached sync.WaitGroup
}

// NewPipeline wires a pipeline from its stage components. dumper may be nil.
func NewPipeline(
	sessions Sessions,
	planner Planner,
	dispatcher dispatch.Dispatcher,
	video VideoResearcher,
	normalizer Normalizer,
	synthesizer Synthesizer,
	dumper *DebugDumper,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		sessions:    sessions,
		planner:     planner,
		dispatcher:  dispatcher,
		video:       video,
		normalizer:  normalizer,
		synthesizer: synthesizer,
		dumper:      dumper,
		logger:      logger,
	}
}

// Start launches Run on its own goroutine with a fresh root context, so
// the HTTP request that created the session can return immediately.
func (p *Pipeline) Start(sessionID string, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := p.Run(ctx, sessionID); err != nil {
			p.logger.Error("Research pipeline failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}()
}

// Run executes the full pipeline for one session.
func (p *Pipeline) Run(ctx context.Context, sessionID string) error {
	start := time.Now()
	sess, err := p.sessions.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	if err := p.sessions.UpdateStatus(ctx, sessionID, session.StatusResearching, ""); err != nil {
		return fmt.Errorf("enter researching: %w", err)
	}

	plan, err := p.planStage(ctx, sessionID, sess.Brief)
	if err != nil {
		return p.fail(ctx, sessionID, start, err)
	}

	raw, err := p.dispatchStage(ctx, sessionID, sess.Brief, plan)
	if err != nil {
		return p.fail(ctx, sessionID, start, err)
	}
	p.dump(sessionID, "search_results", raw)

	if err := p.sessions.UpdateStatus(ctx, sessionID, session.StatusProcessing, ""); err != nil {
		return p.fail(ctx, sessionID, start, fmt.Errorf("enter processing: %w", err))
	}

	processed := p.processStage(sessionID, raw)
	p.dump(sessionID, "processed_results", processed)
	if err := p.sessions.SaveProcessedResults(ctx, sessionID, processed); err != nil {
		return p.fail(ctx, sessionID, start, fmt.Errorf("save processed results: %w", err))
	}

	if err := p.sessions.UpdateStatus(ctx, sessionID, session.StatusSynthesizing, ""); err != nil {
		return p.fail(ctx, sessionID, start, fmt.Errorf("enter synthesizing: %w", err))
	}

	if err := p.synthesisStage(ctx, sessionID, sess.Brief, plan, processed); err != nil {
		return p.fail(ctx, sessionID, start, err)
	}

	if err := p.sessions.UpdateStatus(ctx, sessionID, session.StatusCompleted, ""); err != nil {
		return p.fail(ctx, sessionID, start, fmt.Errorf("enter completed: %w", err))
	}

	metrics.PipelineDuration.WithLabelValues(string(session.StatusCompleted)).Observe(time.Since(start).Seconds())
	p.logger.Info("Research pipeline completed",
		zap.String("session_id", sessionID),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (p *Pipeline) planStage(ctx context.Context, sessionID string, brief models.ResearchBrief) (*models.SearchPlan, error) {
	stageStart := time.Now()
	defer func() { metrics.RecordStage("plan", time.Since(stageStart).Seconds()) }()

	plan, err := p.planner.Plan(ctx, brief)
	if err != nil {
		return nil, fmt.Errorf("plan queries: %w", err)
	}
	if err := p.sessions.SavePlan(ctx, sessionID, plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	return plan, nil
}

// dispatchStage runs the category searches and the video research unit
// in parallel and persists whatever came back, even on total failure,
// so the raw payloads are available for diagnosis.
func (p *Pipeline) dispatchStage(ctx context.Context, sessionID string, brief models.ResearchBrief, plan *models.SearchPlan) (*models.RawResults, error) {
	stageStart := time.Now()
	defer func() { metrics.RecordStage("dispatch", time.Since(stageStart).Seconds()) }()

	var videoResult *models.VideoResearch
	var videoWG sync.WaitGroup
	if p.video != nil {
		query := videoQuery(brief, plan)
		videoWG.Add(1)
		go func() {
			defer videoWG.Done()
			videoResult = p.video.Research(ctx, query)
		}()
	}

	results, dispatchErr := p.dispatcher.Dispatch(ctx, sessionID, plan.Queries())
	videoWG.Wait()

	raw := &models.RawResults{Categories: results, YouTube: videoResult}
	if err := p.sessions.SaveSearchResults(ctx, sessionID, raw); err != nil {
		return nil, fmt.Errorf("save search results: %w", err)
	}

	if dispatchErr != nil && errors.Is(dispatchErr, dispatch.ErrAllSearchesFailed) {
		return nil, dispatchErr
	}
	if dispatchErr != nil {
		return nil, fmt.Errorf("dispatch searches: %w", dispatchErr)
	}
	return raw, nil
}

// videoQuery picks the video research query: the planned query when
// present, otherwise the product name, then the product search query.
func videoQuery(brief models.ResearchBrief, plan *models.SearchPlan) string {
	if plan.VideoSearchQuery != "" {
		return plan.VideoSearchQuery
	}
	if brief.ProductName != "" {
		return brief.ProductName
	}
	if plan.ProductSearchQuery != "" {
		return plan.ProductSearchQuery
	}
	return "advertising"
}

func (p *Pipeline) processStage(sessionID string, raw *models.RawResults) *models.ProcessedResults {
	stageStart := time.Now()
	defer func() { metrics.RecordStage("process", time.Since(stageStart).Seconds()) }()
	return p.normalizer.Process(raw)
}

func (p *Pipeline) synthesisStage(ctx context.Context, sessionID string, brief models.ResearchBrief, plan *models.SearchPlan, processed *models.ProcessedResults) error {
	stageStart := time.Now()
	defer func() { metrics.RecordStage("synthesize", time.Since(stageStart).Seconds()) }()

	report := p.synthesizer.Synthesize(ctx, brief, processed)

	var cats []models.Category
	for cat := range plan.NonEmptyQueries() {
		cats = append(cats, cat)
	}
	resources := analysis.BuildResourcesUsed(processed, dispatch.Engines(cats))

	if err := p.sessions.SaveReport(ctx, sessionID, report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	if err := p.sessions.SaveResourcesUsed(ctx, sessionID, resources); err != nil {
		return fmt.Errorf("save resources used: %w", err)
	}
	return nil
}

// fail marks the session failed, best effort, and returns the cause.
func (p *Pipeline) fail(ctx context.Context, sessionID string, start time.Time, cause error) error {
	metrics.PipelineDuration.WithLabelValues(string(session.StatusFailed)).Observe(time.Since(start).Seconds())
	if err := p.sessions.UpdateStatus(ctx, sessionID, session.StatusFailed, cause.Error()); err != nil {
		p.logger.Error("Failed to mark session failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
	return cause
}

func (p *Pipeline) dump(sessionID, name string, payload interface{}) {
	if p.dumper == nil {
		return
	}
	p.detached.Add(1)
	go func() {
		defer p.detached.Done()
		p.dumper.Dump(sessionID, name, payload)
	}()
}

// WaitDetached blocks until all fire-and-forget work has finished.
func (p *Pipeline) WaitDetached() {
	p.detached.Wait()
}
