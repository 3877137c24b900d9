package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/llm"
	"github.com/advista-ai/orchestrator/internal/models"
)

const planSystemPrompt = `You are an advertising research strategist. Given a campaign brief,
produce focused web search queries that will surface the most useful
market intelligence. Respond with a JSON object containing exactly these
keys: product_search_query, competitor_search_query,
audience_insight_query, campaign_strategy_query,
platform_specific_query, video_search_query. Every value must be a
search query string; use an empty string for angles the brief gives no
material for.`

type completer interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// Planner derives per-category search queries from a research brief.
type Planner struct {
	llm    completer
	logger *zap.Logger
}

// New creates a planner.
func New(client completer, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{llm: client, logger: logger}
}

// Plan asks the model for a search plan. A malformed response falls
// back to deterministic queries built from the brief, so planning never
// blocks the pipeline.
func (p *Planner) Plan(ctx context.Context, brief models.ResearchBrief) (*models.SearchPlan, error) {
	user := briefPrompt(brief)

	raw, err := p.llm.CompleteJSON(ctx, planSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("plan queries: %w", err)
	}

	var plan models.SearchPlan
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &plan); err != nil {
		p.logger.Warn("Query plan response was not valid JSON, using fallback queries",
			zap.Error(err),
		)
		plan = DefaultPlan(brief)
	}

	if len(plan.NonEmptyQueries()) == 0 {
		p.logger.Warn("Query plan came back empty, using fallback queries")
		plan = DefaultPlan(brief)
	}

	p.logger.Info("Search plan ready",
		zap.Int("queries", len(plan.NonEmptyQueries())),
		zap.Bool("video_query", plan.VideoSearchQuery != ""),
	)
	return &plan, nil
}

// DefaultPlan builds deterministic queries straight from the brief.
func DefaultPlan(brief models.ResearchBrief) models.SearchPlan {
	product := brief.ProductName
	if product == "" {
		product = brief.ProductDescription
	}

	plan := models.SearchPlan{
		ProductSearchQuery:    strings.TrimSpace(product + " reviews features pricing"),
		CampaignStrategyQuery: strings.TrimSpace(product + " advertising campaign strategies " + brief.CampaignGoals),
		VideoSearchQuery:      strings.TrimSpace(product + " ads"),
	}
	if len(brief.CompetitorNames) > 0 {
		plan.CompetitorSearchQuery = strings.Join(brief.CompetitorNames, " vs ") + " comparison"
	}
	if brief.TargetAudience != "" {
		plan.AudienceInsightQuery = brief.TargetAudience + " preferences opinions discussions"
	}
	if len(brief.PreferredPlatforms) > 0 {
		plan.PlatformSpecificQuery = strings.Join(brief.PreferredPlatforms, " ") + " advertising best practices"
	}
	return plan
}

func briefPrompt(brief models.ResearchBrief) string {
	var b strings.Builder
	b.WriteString("Campaign brief:\n")
	fmt.Fprintf(&b, "Product: %s\n", brief.ProductName)
	if brief.ProductDescription != "" {
		fmt.Fprintf(&b, "Description: %s\n", brief.ProductDescription)
	}
	if brief.TargetAudience != "" {
		fmt.Fprintf(&b, "Target audience: %s\n", brief.TargetAudience)
	}
	if len(brief.CompetitorNames) > 0 {
		fmt.Fprintf(&b, "Competitors: %s\n", strings.Join(brief.CompetitorNames, ", "))
	}
	if brief.CampaignGoals != "" {
		fmt.Fprintf(&b, "Campaign goals: %s\n", brief.CampaignGoals)
	}
	if len(brief.PreferredPlatforms) > 0 {
		fmt.Fprintf(&b, "Preferred platforms: %s\n", strings.Join(brief.PreferredPlatforms, ", "))
	}
	if brief.BudgetRange != "" {
		fmt.Fprintf(&b, "Budget: %s\n", brief.BudgetRange)
	}
	if brief.ToneAndStyle != "" {
		fmt.Fprintf(&b, "Tone: %s\n", brief.ToneAndStyle)
	}
	if brief.Timeline != "" {
		fmt.Fprintf(&b, "Timeline: %s\n", brief.Timeline)
	}
	if brief.AdditionalNotes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", brief.AdditionalNotes)
	}
	return b.String()
}
