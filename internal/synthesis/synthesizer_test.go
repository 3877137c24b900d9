package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/models"
)

// fakeCompleter routes responses by keywords in the system prompt.
type fakeCompleter struct {
	responses map[string]string
	errOn     map[string]error
	calls     []string
}

func (f *fakeCompleter) key(system string) string {
	switch {
	case strings.Contains(system, "analyze the product"):
		return "product"
	case strings.Contains(system, "competitive landscape"):
		return "competitor"
	case strings.Contains(system, "profile the target audience"):
		return "audience"
	case strings.Contains(system, "recommend a campaign approach"):
		return "campaign"
	case strings.Contains(system, "platform allocation"):
		return "platform"
	case strings.Contains(system, "executive"):
		return "summary"
	case strings.Contains(system, "next actions"):
		return "actions"
	}
	return "unknown"
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return f.CompleteJSON(ctx, system, user)
}

func (f *fakeCompleter) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	k := f.key(system)
	f.calls = append(f.calls, k)
	if err := f.errOn[k]; err != nil {
		return "", err
	}
	return f.responses[k], nil
}

func fullProcessed() *models.ProcessedResults {
	mk := func(cat models.Category) *models.CategoryInsights {
		return &models.CategoryInsights{
			Category:    cat,
			Query:       "query for " + string(cat),
			KeySnippets: []string{"A finding about " + string(cat) + " that is long enough"},
		}
	}
	return &models.ProcessedResults{
		ProductInsights:    mk(models.CategoryProduct),
		CompetitorInsights: mk(models.CategoryCompetitor),
		AudienceInsights:   mk(models.CategoryAudience),
		CampaignInsights:   mk(models.CategoryCampaign),
		PlatformInsights:   mk(models.CategoryPlatform),
	}
}

func happyResponses() map[string]string {
	return map[string]string{
		"product":    `{"summary": "Solid product", "key_features": ["grip"], "market_position": "mid-range", "strengths": ["comfort"], "weaknesses": ["price"], "trends": ["cushioning"]}`,
		"competitor": `{"summary": "Crowded field", "main_competitors": [{"name": "Acme", "strengths": ["brand"], "weaknesses": ["price"]}], "competitive_advantages": ["fit"], "competitive_threats": ["discounting"], "pricing_insights": "mid", "differentiation_opportunities": ["trail niche"]}`,
		"audience":   `{"summary": "Engaged runners", "demographics": {"age": "25-40"}, "psychographics": ["health-focused"], "pain_points": ["injuries"], "motivations": ["performance"], "online_behavior": ["forums"], "best_channels": ["instagram"]}`,
		"campaign":   `{"summary": "Awareness first", "recommended_objectives": ["reach"], "key_messages": ["built for trails"], "content_ideas": ["athlete stories"], "best_practices": ["short video"], "success_metrics": ["CPM"], "budget_recommendations": "60/40 split"}`,
		"platform":   `{"summary": "Video-led", "platform_recommendations": [{"platform": "instagram", "priority": "high", "strategy": "reels", "budget_percentage": 40}], "ad_format_suggestions": ["reels"], "targeting_strategies": ["interest"], "timing_recommendations": {"best_days": ["Sat"], "best_times": ["morning"]}}`,
		"summary":    "The product is well positioned for a video-led awareness campaign.",
		"actions":    `{"action_items": ["Brief the creative team", "Book instagram inventory"]}`,
	}
}

func TestSynthesizeFullReport(t *testing.T) {
	llm := &fakeCompleter{responses: happyResponses(), errOn: map[string]error{}}
	s := New(llm, zap.NewNop())

	report := s.Synthesize(context.Background(), models.ResearchBrief{ProductName: "TrailBlazer"}, fullProcessed())

	assert.True(t, report.IsComplete())
	require.NotNil(t, report.ProductAnalysis)
	assert.Equal(t, "Solid product", report.ProductAnalysis.Summary)
	require.NotNil(t, report.CompetitorAnalysis)
	require.Len(t, report.CompetitorAnalysis.MainCompetitors, 1)
	assert.Equal(t, "Acme", report.CompetitorAnalysis.MainCompetitors[0].Name)
	require.NotNil(t, report.PlatformStrategy)
	assert.Equal(t, 40, report.PlatformStrategy.PlatformRecommendations[0].BudgetPercentage)
	assert.Equal(t, []string{"Brief the creative team", "Book instagram inventory"}, report.ActionItems)
	assert.NotEmpty(t, report.ExecutiveSummary)
}

func TestSynthesizeSectionFailureIsIsolated(t *testing.T) {
	llm := &fakeCompleter{
		responses: happyResponses(),
		errOn:     map[string]error{"competitor": errors.New("rate limited")},
	}
	s := New(llm, zap.NewNop())

	report := s.Synthesize(context.Background(), models.ResearchBrief{}, fullProcessed())

	assert.Nil(t, report.CompetitorAnalysis)
	assert.NotNil(t, report.ProductAnalysis)
	assert.NotNil(t, report.AudienceAnalysis)
	assert.False(t, report.IsComplete())
	// Summary still ran over the surviving sections.
	assert.NotEmpty(t, report.ExecutiveSummary)
}

func TestSynthesizeMalformedSectionBecomesZeroValue(t *testing.T) {
	responses := happyResponses()
	responses["product"] = "this is not json at all"
	llm := &fakeCompleter{responses: responses, errOn: map[string]error{}}
	s := New(llm, zap.NewNop())

	report := s.Synthesize(context.Background(), models.ResearchBrief{}, fullProcessed())

	require.NotNil(t, report.ProductAnalysis)
	assert.Empty(t, report.ProductAnalysis.Summary)
	assert.Empty(t, report.ProductAnalysis.KeyFeatures)
}

func TestSynthesizeSkipsAbsentCategories(t *testing.T) {
	llm := &fakeCompleter{responses: happyResponses(), errOn: map[string]error{}}
	s := New(llm, zap.NewNop())

	processed := &models.ProcessedResults{
		ProductInsights: fullProcessed().ProductInsights,
	}
	report := s.Synthesize(context.Background(), models.ResearchBrief{}, processed)

	assert.NotNil(t, report.ProductAnalysis)
	assert.Nil(t, report.CompetitorAnalysis)
	assert.Nil(t, report.AudienceAnalysis)
	assert.NotContains(t, llm.calls, "competitor")
	assert.NotContains(t, llm.calls, "audience")
}

func TestSummaryAndActionFallbacks(t *testing.T) {
	llm := &fakeCompleter{
		responses: happyResponses(),
		errOn: map[string]error{
			"summary": errors.New("rate limited"),
			"actions": errors.New("rate limited"),
		},
	}
	s := New(llm, zap.NewNop())

	report := s.Synthesize(context.Background(), models.ResearchBrief{}, fullProcessed())

	assert.NotEmpty(t, report.ExecutiveSummary)
	require.Len(t, report.ActionItems, 5)
	assert.Contains(t, report.ActionItems[0], "Review the research findings")
}

func TestActionItemsMalformedFallsBack(t *testing.T) {
	responses := happyResponses()
	responses["actions"] = `{"items": "wrong shape"}`
	llm := &fakeCompleter{responses: responses, errOn: map[string]error{}}
	s := New(llm, zap.NewNop())

	report := s.Synthesize(context.Background(), models.ResearchBrief{}, fullProcessed())
	require.Len(t, report.ActionItems, 5)
}

func TestSynthesizeFencedJSON(t *testing.T) {
	responses := happyResponses()
	responses["product"] = "```json\n" + responses["product"] + "\n```"
	llm := &fakeCompleter{responses: responses, errOn: map[string]error{}}
	s := New(llm, zap.NewNop())

	report := s.Synthesize(context.Background(), models.ResearchBrief{}, fullProcessed())
	require.NotNil(t, report.ProductAnalysis)
	assert.Equal(t, "Solid product", report.ProductAnalysis.Summary)
}
