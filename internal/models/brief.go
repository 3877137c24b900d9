package models

// ResearchBrief is the structured input describing an advertising research
// request. It is frozen once a session is created.
type ResearchBrief struct {
	ProductName        string   `json:"product_name"`
	ProductDescription string   `json:"product_description"`
	TargetAudience     string   `json:"target_audience"`
	CompetitorNames    []string `json:"competitor_names"`
	CampaignGoals      string   `json:"campaign_goals"`
	PreferredPlatforms []string `json:"preferred_platforms"`
	BudgetRange        string   `json:"budget_range"`
	ToneAndStyle       string   `json:"tone_and_style"`
	Timeline           string   `json:"timeline"`
	AdditionalNotes    string   `json:"additional_notes"`
}

// IsComplete reports whether the brief carries enough information to start
// research: at least 3 of the 4 core fields plus some supporting detail.
func (b *ResearchBrief) IsComplete() bool {
	core := 0
	for _, ok := range []bool{
		b.ProductName != "",
		b.TargetAudience != "",
		b.CampaignGoals != "",
		b.BudgetRange != "",
	} {
		if ok {
			core++
		}
	}
	hasAdditional := len(b.CompetitorNames) > 0 || len(b.PreferredPlatforms) > 0 || b.ToneAndStyle != ""
	return core >= 3 && hasAdditional
}

// MissingFields lists the brief fields that are still empty.
func (b *ResearchBrief) MissingFields() []string {
	var missing []string
	if b.ProductName == "" {
		missing = append(missing, "product_name")
	}
	if b.ProductDescription == "" {
		missing = append(missing, "product_description")
	}
	if b.TargetAudience == "" {
		missing = append(missing, "target_audience")
	}
	if len(b.CompetitorNames) == 0 {
		missing = append(missing, "competitor_names")
	}
	if b.CampaignGoals == "" {
		missing = append(missing, "campaign_goals")
	}
	if len(b.PreferredPlatforms) == 0 {
		missing = append(missing, "preferred_platforms")
	}
	if b.BudgetRange == "" {
		missing = append(missing, "budget_range")
	}
	if b.ToneAndStyle == "" {
		missing = append(missing, "tone_and_style")
	}
	if b.Timeline == "" {
		missing = append(missing, "timeline")
	}
	return missing
}

// CompletionPercentage reports how much of the brief has been filled in.
func (b *ResearchBrief) CompletionPercentage() float64 {
	const totalFields = 10
	filled := 0
	for _, ok := range []bool{
		b.ProductName != "",
		b.ProductDescription != "",
		b.TargetAudience != "",
		len(b.CompetitorNames) > 0,
		b.CampaignGoals != "",
		len(b.PreferredPlatforms) > 0,
		b.BudgetRange != "",
		b.ToneAndStyle != "",
		b.Timeline != "",
		b.AdditionalNotes != "",
	} {
		if ok {
			filled++
		}
	}
	return float64(filled) / totalFields * 100
}
