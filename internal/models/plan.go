package models

// Category identifies one of the fixed research angles.
type Category string

const (
	CategoryProduct    Category = "product"
	CategoryCompetitor Category = "competitor"
	CategoryAudience   Category = "audience"
	CategoryCampaign   Category = "campaign"
	CategoryPlatform   Category = "platform"
)

// Categories lists all search categories in their canonical order.
var Categories = []Category{
	CategoryProduct,
	CategoryCompetitor,
	CategoryAudience,
	CategoryCampaign,
	CategoryPlatform,
}

// SearchPlan holds the search queries derived from a research brief.
// An empty query means the category is skipped downstream; it is a valid
// value, not an error.
type SearchPlan struct {
	ProductSearchQuery    string `json:"product_search_query"`
	CompetitorSearchQuery string `json:"competitor_search_query"`
	AudienceInsightQuery  string `json:"audience_insight_query"`
	CampaignStrategyQuery string `json:"campaign_strategy_query"`
	PlatformSpecificQuery string `json:"platform_specific_query"`
	VideoSearchQuery      string `json:"video_search_query,omitempty"`
}

// Queries returns the per-category query map, including empty entries.
func (p *SearchPlan) Queries() map[Category]string {
	return map[Category]string{
		CategoryProduct:    p.ProductSearchQuery,
		CategoryCompetitor: p.CompetitorSearchQuery,
		CategoryAudience:   p.AudienceInsightQuery,
		CategoryCampaign:   p.CampaignStrategyQuery,
		CategoryPlatform:   p.PlatformSpecificQuery,
	}
}

// NonEmptyQueries returns only the categories that have a query to run.
func (p *SearchPlan) NonEmptyQueries() map[Category]string {
	out := make(map[Category]string)
	for cat, q := range p.Queries() {
		if q != "" {
			out[cat] = q
		}
	}
	return out
}
