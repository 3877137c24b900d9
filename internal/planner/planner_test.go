package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/models"
)

type fakeCompleter struct {
	response string
	err      error
	lastUser string
}

func (f *fakeCompleter) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	f.lastUser = user
	return f.response, f.err
}

func sampleBrief() models.ResearchBrief {
	return models.ResearchBrief{
		ProductName:        "TrailBlazer shoes",
		TargetAudience:     "trail runners",
		CampaignGoals:      "brand awareness",
		CompetitorNames:    []string{"Acme", "Globex"},
		PreferredPlatforms: []string{"instagram", "youtube"},
	}
}

func TestPlanParsesModelResponse(t *testing.T) {
	llm := &fakeCompleter{response: "```json\n" + `{
		"product_search_query": "TrailBlazer shoes review",
		"competitor_search_query": "Acme vs Globex trail shoes",
		"audience_insight_query": "trail runners shoe preferences",
		"campaign_strategy_query": "outdoor brand awareness campaigns",
		"platform_specific_query": "instagram running ads best practices",
		"video_search_query": "TrailBlazer shoe ads"
	}` + "\n```"}

	p := New(llm, zap.NewNop())
	plan, err := p.Plan(context.Background(), sampleBrief())
	require.NoError(t, err)

	assert.Equal(t, "TrailBlazer shoes review", plan.ProductSearchQuery)
	assert.Equal(t, "TrailBlazer shoe ads", plan.VideoSearchQuery)
	assert.Len(t, plan.NonEmptyQueries(), 5)
	assert.Contains(t, llm.lastUser, "TrailBlazer shoes")
	assert.Contains(t, llm.lastUser, "Acme, Globex")
}

func TestPlanFallsBackOnMalformedJSON(t *testing.T) {
	llm := &fakeCompleter{response: "I think you should search for shoes."}

	p := New(llm, zap.NewNop())
	plan, err := p.Plan(context.Background(), sampleBrief())
	require.NoError(t, err)

	assert.Equal(t, "TrailBlazer shoes reviews features pricing", plan.ProductSearchQuery)
	assert.Equal(t, "Acme vs Globex comparison", plan.CompetitorSearchQuery)
	assert.NotEmpty(t, plan.VideoSearchQuery)
}

func TestPlanFallsBackOnEmptyPlan(t *testing.T) {
	llm := &fakeCompleter{response: `{}`}

	p := New(llm, zap.NewNop())
	plan, err := p.Plan(context.Background(), sampleBrief())
	require.NoError(t, err)
	assert.NotEmpty(t, plan.NonEmptyQueries())
}

func TestPlanPropagatesLLMError(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("rate limited")}

	p := New(llm, zap.NewNop())
	_, err := p.Plan(context.Background(), sampleBrief())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestDefaultPlanOmitsUnsupportedAngles(t *testing.T) {
	plan := DefaultPlan(models.ResearchBrief{ProductName: "Widget"})
	assert.NotEmpty(t, plan.ProductSearchQuery)
	assert.Empty(t, plan.CompetitorSearchQuery)
	assert.Empty(t, plan.AudienceInsightQuery)
	assert.Empty(t, plan.PlatformSpecificQuery)
}
