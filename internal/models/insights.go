package models

// OrganicResult is a cleaned organic search hit.
type OrganicResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Source   string `json:"source"`
	Date     string `json:"date,omitempty"`
}

// RelatedQuestion is a "people also ask" question with its answer.
type RelatedQuestion struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	SourceTitle string `json:"source_title,omitempty"`
	SourceLink  string `json:"source_link,omitempty"`
}

// AIOverview holds the AI-generated overview split into free text and
// bullet points.
type AIOverview struct {
	Snippets  []string `json:"snippets"`
	KeyPoints []string `json:"key_points"`
}

// IsEmpty reports whether the overview carries no content.
func (o AIOverview) IsEmpty() bool {
	return len(o.Snippets) == 0 && len(o.KeyPoints) == 0
}

// CategoryInsights is the normalized insight record for one category.
type CategoryInsights struct {
	Category         Category          `json:"category"`
	Query            string            `json:"query"`
	TotalResults     int64             `json:"total_results"`
	TopResults       []OrganicResult   `json:"top_results"`
	RelatedQuestions []RelatedQuestion `json:"related_questions"`
	AIOverview       AIOverview        `json:"ai_overview"`
	KeySnippets      []string          `json:"key_snippets"`
	Sources          []string          `json:"sources"`
}

// VideoResult is a video with its transcript. Transcript is an empty
// string when retrieval failed, never absent.
type VideoResult struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Channel       string `json:"channel"`
	PublishedDate string `json:"published_date"`
	Views         *int64 `json:"views,omitempty"`
	Length        string `json:"length"`
	Description   string `json:"description"`
	VideoID       string `json:"video_id"`
	Transcript    string `json:"transcript"`
}

// ShortResult is a short-form video with its transcript.
type ShortResult struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Views         *int64 `json:"views,omitempty"`
	ViewsOriginal string `json:"views_original"`
	VideoID       string `json:"video_id"`
	Transcript    string `json:"transcript"`
}

// VideoResearch is the Video Research Unit output: up to 3 videos and
// up to 5 shorts, transcripts included.
type VideoResearch struct {
	Query  string        `json:"query"`
	Videos []VideoResult `json:"videos"`
	Shorts []ShortResult `json:"shorts"`
}

// YouTubeInsights is the normalized video insight record.
type YouTubeInsights struct {
	Query  string        `json:"query"`
	Videos []VideoResult `json:"videos"`
	Shorts []ShortResult `json:"shorts"`
}

// ProcessingSummary describes what the normalizer produced.
type ProcessingSummary struct {
	CategoriesProcessed int      `json:"categories_processed"`
	TotalUniqueSources  int      `json:"total_unique_sources"`
	CategoriesAvailable []string `json:"categories_available"`
}

// ProcessedResults holds normalized insights across all categories.
type ProcessedResults struct {
	ProductInsights    *CategoryInsights `json:"product_insights,omitempty"`
	CompetitorInsights *CategoryInsights `json:"competitor_insights,omitempty"`
	AudienceInsights   *CategoryInsights `json:"audience_insights,omitempty"`
	CampaignInsights   *CategoryInsights `json:"campaign_insights,omitempty"`
	PlatformInsights   *CategoryInsights `json:"platform_insights,omitempty"`
	YouTubeInsights    *YouTubeInsights  `json:"youtube_insights,omitempty"`

	TotalSources      int               `json:"total_sources"`
	ProcessingSummary ProcessingSummary `json:"processing_summary"`
}

// Insights returns all populated category insights in canonical order.
func (p *ProcessedResults) Insights() []*CategoryInsights {
	var out []*CategoryInsights
	for _, ins := range []*CategoryInsights{
		p.ProductInsights,
		p.CompetitorInsights,
		p.AudienceInsights,
		p.CampaignInsights,
		p.PlatformInsights,
	} {
		if ins != nil {
			out = append(out, ins)
		}
	}
	return out
}

// ByCategory returns the insight slot for a category, or nil.
func (p *ProcessedResults) ByCategory(cat Category) *CategoryInsights {
	switch cat {
	case CategoryProduct:
		return p.ProductInsights
	case CategoryCompetitor:
		return p.CompetitorInsights
	case CategoryAudience:
		return p.AudienceInsights
	case CategoryCampaign:
		return p.CampaignInsights
	case CategoryPlatform:
		return p.PlatformInsights
	}
	return nil
}

// SetCategory stores an insight record under its category slot.
func (p *ProcessedResults) SetCategory(cat Category, ins *CategoryInsights) {
	switch cat {
	case CategoryProduct:
		p.ProductInsights = ins
	case CategoryCompetitor:
		p.CompetitorInsights = ins
	case CategoryAudience:
		p.AudienceInsights = ins
	case CategoryCampaign:
		p.CampaignInsights = ins
	case CategoryPlatform:
		p.PlatformInsights = ins
	}
}

// UniqueSources returns the distinct sources across every category.
func (p *ProcessedResults) UniqueSources() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, ins := range p.Insights() {
		for _, s := range ins.Sources {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	return out
}
