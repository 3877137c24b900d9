package synthesis

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/analysis"
	"github.com/advista-ai/orchestrator/internal/llm"
	"github.com/advista-ai/orchestrator/internal/metrics"
	"github.com/advista-ai/orchestrator/internal/models"
)

type completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// Synthesizer turns processed insights into the final report, one
// structured LLM call per section. A failed section is left nil and the
// remaining sections still run.
type Synthesizer struct {
	llm    completer
	logger *zap.Logger
}

// New creates a synthesizer.
func New(client completer, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{llm: client, logger: logger}
}

// Synthesize builds the research report. Sections are only attempted
// for categories that produced insights; the executive summary and
// action items always run, over whatever sections survived.
func (s *Synthesizer) Synthesize(ctx context.Context, brief models.ResearchBrief, processed *models.ProcessedResults) *models.ResearchReport {
	report := &models.ResearchReport{}
	briefCtx := analysis.BriefContext(brief)
	videoCtx := analysis.VideoContext(processed.YouTubeInsights)

	if ins := processed.ProductInsights; ins != nil {
		report.ProductAnalysis = synthesizeSection[models.ProductAnalysis](
			ctx, s, "product_analysis", productPrompt, briefCtx+"\n"+analysis.CategoryContext(ins)+videoCtx)
	}
	if ins := processed.CompetitorInsights; ins != nil {
		report.CompetitorAnalysis = synthesizeSection[models.CompetitorAnalysis](
			ctx, s, "competitor_analysis", competitorPrompt, briefCtx+"\n"+analysis.CategoryContext(ins))
	}
	if ins := processed.AudienceInsights; ins != nil {
		report.AudienceAnalysis = synthesizeSection[models.AudienceAnalysis](
			ctx, s, "audience_analysis", audiencePrompt, briefCtx+"\n"+analysis.CategoryContext(ins))
	}
	if ins := processed.CampaignInsights; ins != nil {
		report.CampaignRecommendations = synthesizeSection[models.CampaignRecommendations](
			ctx, s, "campaign_recommendations", campaignPrompt, briefCtx+"\n"+analysis.CategoryContext(ins))
	}
	if ins := processed.PlatformInsights; ins != nil {
		report.PlatformStrategy = synthesizeSection[models.PlatformStrategy](
			ctx, s, "platform_strategy", platformPrompt, briefCtx+"\n"+analysis.CategoryContext(ins)+videoCtx)
	}

	combined := analysis.CombinedContext(brief, processed)
	report.ExecutiveSummary = s.executiveSummary(ctx, combined)
	report.ActionItems = s.actionItems(ctx, combined)

	s.logger.Info("Report synthesized",
		zap.Bool("complete", report.IsComplete()),
		zap.Int("action_items", len(report.ActionItems)),
	)
	return report
}

// synthesizeSection runs one structured call and parses it into T. An
// LLM failure yields nil; a parse failure yields the zero value of T so
// the section is present but empty rather than poisoning the report.
func synthesizeSection[T any](ctx context.Context, s *Synthesizer, section, prompt, promptCtx string) *T {
	raw, err := s.llm.CompleteJSON(ctx, prompt, promptCtx)
	if err != nil {
		metrics.SynthesisCalls.WithLabelValues(section, "error").Inc()
		s.logger.Warn("Section synthesis failed",
			zap.String("section", section),
			zap.Error(err),
		)
		return nil
	}
	metrics.SynthesisCalls.WithLabelValues(section, "success").Inc()

	var out T
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &out); err != nil {
		metrics.SynthesisParseFailures.WithLabelValues(section).Inc()
		s.logger.Warn("Section response failed schema parsing",
			zap.String("section", section),
			zap.Error(err),
		)
		return &out
	}
	return &out
}

func (s *Synthesizer) executiveSummary(ctx context.Context, promptCtx string) string {
	raw, err := s.llm.Complete(ctx, summaryPrompt, promptCtx)
	if err != nil {
		metrics.SynthesisCalls.WithLabelValues("executive_summary", "error").Inc()
		s.logger.Warn("Executive summary synthesis failed", zap.Error(err))
		return "Research completed. Detailed findings are available in the section analyses below."
	}
	metrics.SynthesisCalls.WithLabelValues("executive_summary", "success").Inc()
	return raw
}

func (s *Synthesizer) actionItems(ctx context.Context, promptCtx string) []string {
	fallback := []string{
		"Review the research findings with the campaign team",
		"Validate the recommended platforms against the campaign budget",
		"Draft creative concepts around the key messages identified",
		"Set up tracking for the suggested success metrics",
		"Schedule a follow-up review once the first campaign data arrives",
	}

	raw, err := s.llm.CompleteJSON(ctx, actionItemsPrompt, promptCtx)
	if err != nil {
		metrics.SynthesisCalls.WithLabelValues("action_items", "error").Inc()
		s.logger.Warn("Action item synthesis failed", zap.Error(err))
		return fallback
	}
	metrics.SynthesisCalls.WithLabelValues("action_items", "success").Inc()

	var parsed struct {
		ActionItems []string `json:"action_items"`
	}
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &parsed); err != nil || len(parsed.ActionItems) == 0 {
		metrics.SynthesisParseFailures.WithLabelValues("action_items").Inc()
		return fallback
	}
	return parsed.ActionItems
}
