package analysis

import (
	"fmt"
	"strings"

	"github.com/advista-ai/orchestrator/internal/models"
)

const (
	videoTranscriptLimit = 2000
	shortTranscriptLimit = 1500
)

// BriefContext renders the campaign brief as prompt context.
func BriefContext(brief models.ResearchBrief) string {
	var b strings.Builder
	b.WriteString("CAMPAIGN BRIEF:\n")
	writeField(&b, "Product", brief.ProductName)
	writeField(&b, "Description", brief.ProductDescription)
	writeField(&b, "Target audience", brief.TargetAudience)
	writeField(&b, "Campaign goals", brief.CampaignGoals)
	writeField(&b, "Budget range", brief.BudgetRange)
	writeField(&b, "Competitors", strings.Join(brief.CompetitorNames, ", "))
	writeField(&b, "Preferred platforms", strings.Join(brief.PreferredPlatforms, ", "))
	writeField(&b, "Tone and style", brief.ToneAndStyle)
	writeField(&b, "Timeline", brief.Timeline)
	writeField(&b, "Notes", brief.AdditionalNotes)
	return b.String()
}

// CategoryContext renders one category's insights as prompt context.
func CategoryContext(ins *models.CategoryInsights) string {
	if ins == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "RESEARCH (%s):\nQuery: %s\n", strings.ToUpper(string(ins.Category)), ins.Query)

	if len(ins.KeySnippets) > 0 {
		b.WriteString("Key findings:\n")
		for _, s := range ins.KeySnippets {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	if len(ins.RelatedQuestions) > 0 {
		b.WriteString("Questions people ask:\n")
		for _, q := range ins.RelatedQuestions {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", q.Question, q.Answer)
		}
	}
	if len(ins.Sources) > 0 {
		fmt.Fprintf(&b, "Sources: %s\n", strings.Join(ins.Sources, ", "))
	}
	return b.String()
}

// VideoContext renders video research as prompt context. Transcripts
// are truncated so a handful of videos cannot dominate the prompt.
func VideoContext(yt *models.YouTubeInsights) string {
	if yt == nil || (len(yt.Videos) == 0 && len(yt.Shorts) == 0) {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "VIDEO RESEARCH:\nQuery: %s\n", yt.Query)

	for _, v := range yt.Videos {
		fmt.Fprintf(&b, "Video: %s (channel: %s)\n", v.Title, v.Channel)
		if v.Transcript != "" {
			fmt.Fprintf(&b, "Transcript: %s\n", truncate(v.Transcript, videoTranscriptLimit))
		}
	}
	for _, s := range yt.Shorts {
		fmt.Fprintf(&b, "Short: %s\n", s.Title)
		if s.Transcript != "" {
			fmt.Fprintf(&b, "Transcript: %s\n", truncate(s.Transcript, shortTranscriptLimit))
		}
	}
	return b.String()
}

// CombinedContext renders the brief plus every available insight block,
// in canonical category order, for whole-report prompts.
func CombinedContext(brief models.ResearchBrief, processed *models.ProcessedResults) string {
	parts := []string{BriefContext(brief)}
	for _, ins := range processed.Insights() {
		if ctx := CategoryContext(ins); ctx != "" {
			parts = append(parts, ctx)
		}
	}
	if ctx := VideoContext(processed.YouTubeInsights); ctx != "" {
		parts = append(parts, ctx)
	}
	return strings.Join(parts, "\n")
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}
