package models

// Synthesized analysis schemas. Each section is produced by one structured
// LLM call; a failed call leaves the section at its zero value.

// ProductAnalysis summarizes product research.
type ProductAnalysis struct {
	Summary        string   `json:"summary"`
	KeyFeatures    []string `json:"key_features"`
	MarketPosition string   `json:"market_position"`
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	Trends         []string `json:"trends"`
}

// CompetitorInfo describes a single competitor.
type CompetitorInfo struct {
	Name       string   `json:"name"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// CompetitorAnalysis summarizes the competitive landscape.
type CompetitorAnalysis struct {
	Summary                      string           `json:"summary"`
	MainCompetitors              []CompetitorInfo `json:"main_competitors"`
	CompetitiveAdvantages        []string         `json:"competitive_advantages"`
	CompetitiveThreats           []string         `json:"competitive_threats"`
	PricingInsights              string           `json:"pricing_insights"`
	DifferentiationOpportunities []string         `json:"differentiation_opportunities"`
}

// AudienceAnalysis summarizes target-audience research.
type AudienceAnalysis struct {
	Summary        string            `json:"summary"`
	Demographics   map[string]string `json:"demographics"`
	Psychographics []string          `json:"psychographics"`
	PainPoints     []string          `json:"pain_points"`
	Motivations    []string          `json:"motivations"`
	OnlineBehavior []string          `json:"online_behavior"`
	BestChannels   []string          `json:"best_channels"`
}

// CampaignRecommendations holds campaign strategy guidance.
type CampaignRecommendations struct {
	Summary               string   `json:"summary"`
	RecommendedObjectives []string `json:"recommended_objectives"`
	KeyMessages           []string `json:"key_messages"`
	ContentIdeas          []string `json:"content_ideas"`
	BestPractices         []string `json:"best_practices"`
	SuccessMetrics        []string `json:"success_metrics"`
	BudgetRecommendations string   `json:"budget_recommendations"`
}

// PlatformRecommendation is guidance for one advertising platform.
type PlatformRecommendation struct {
	Platform         string `json:"platform"`
	Priority         string `json:"priority"`
	Strategy         string `json:"strategy"`
	BudgetPercentage int    `json:"budget_percentage"`
}

// TimingRecommendations suggests scheduling for platform campaigns.
type TimingRecommendations struct {
	BestDays  []string `json:"best_days"`
	BestTimes []string `json:"best_times"`
}

// PlatformStrategy summarizes platform-specific recommendations.
type PlatformStrategy struct {
	Summary                 string                   `json:"summary"`
	PlatformRecommendations []PlatformRecommendation `json:"platform_recommendations"`
	AdFormatSuggestions     []string                 `json:"ad_format_suggestions"`
	TargetingStrategies     []string                 `json:"targeting_strategies"`
	TimingRecommendations   TimingRecommendations    `json:"timing_recommendations"`
}

// ResearchReport is the final synthesized output of a session.
type ResearchReport struct {
	ExecutiveSummary        string                   `json:"executive_summary"`
	ProductAnalysis         *ProductAnalysis         `json:"product_analysis,omitempty"`
	CompetitorAnalysis      *CompetitorAnalysis      `json:"competitor_analysis,omitempty"`
	AudienceAnalysis        *AudienceAnalysis        `json:"audience_analysis,omitempty"`
	CampaignRecommendations *CampaignRecommendations `json:"campaign_recommendations,omitempty"`
	PlatformStrategy        *PlatformStrategy        `json:"platform_strategy,omitempty"`
	ActionItems             []string                 `json:"action_items"`
}

// IsComplete reports whether every section of the report is populated.
func (r *ResearchReport) IsComplete() bool {
	return r.ExecutiveSummary != "" &&
		r.ProductAnalysis != nil &&
		r.CompetitorAnalysis != nil &&
		r.AudienceAnalysis != nil &&
		r.CampaignRecommendations != nil &&
		r.PlatformStrategy != nil
}

// ResourceLink is one citation shown in the resources index.
type ResourceLink struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

// CategoryResources groups the citations backing one category.
type CategoryResources struct {
	Category  Category       `json:"category"`
	Query     string         `json:"query"`
	Source    string         `json:"source"`
	Resources []ResourceLink `json:"resources"`
}

// VideoResourceLink cites one video used during research.
type VideoResourceLink struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Channel       string `json:"channel,omitempty"`
	VideoID       string `json:"video_id"`
	PublishedDate string `json:"published_date,omitempty"`
	ViewsOriginal string `json:"views_original,omitempty"`
	Transcript    string `json:"transcript"`
}

// YouTubeResources groups the video citations.
type YouTubeResources struct {
	Query  string              `json:"query"`
	Videos []VideoResourceLink `json:"videos"`
	Shorts []VideoResourceLink `json:"shorts"`
}

// ResourcesUsed is the citation index persisted alongside the report.
type ResourcesUsed struct {
	Categories []CategoryResources `json:"categories"`
	YouTube    *YouTubeResources   `json:"youtube,omitempty"`
}
