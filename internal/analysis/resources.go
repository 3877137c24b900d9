package analysis

import "github.com/advista-ai/orchestrator/internal/models"

// BuildResourcesUsed turns processed insights into the citation index
// persisted alongside the report. engines maps each category to the
// search engine that served it.
func BuildResourcesUsed(processed *models.ProcessedResults, engines map[models.Category]string) *models.ResourcesUsed {
	out := &models.ResourcesUsed{}

	for _, ins := range processed.Insights() {
		cr := models.CategoryResources{
			Category: ins.Category,
			Query:    ins.Query,
			Source:   engines[ins.Category],
		}
		for _, r := range ins.TopResults {
			cr.Resources = append(cr.Resources, models.ResourceLink{
				Title:   r.Title,
				Link:    r.Link,
				Source:  r.Source,
				Snippet: r.Snippet,
			})
		}
		out.Categories = append(out.Categories, cr)
	}

	if yt := processed.YouTubeInsights; yt != nil && (len(yt.Videos) > 0 || len(yt.Shorts) > 0) {
		res := &models.YouTubeResources{Query: yt.Query}
		for _, v := range yt.Videos {
			res.Videos = append(res.Videos, models.VideoResourceLink{
				Title:         v.Title,
				Link:          v.Link,
				Channel:       v.Channel,
				VideoID:       v.VideoID,
				PublishedDate: v.PublishedDate,
				Transcript:    truncate(v.Transcript, videoTranscriptLimit),
			})
		}
		for _, s := range yt.Shorts {
			res.Shorts = append(res.Shorts, models.VideoResourceLink{
				Title:         s.Title,
				Link:          s.Link,
				VideoID:       s.VideoID,
				ViewsOriginal: s.ViewsOriginal,
				Transcript:    truncate(s.Transcript, shortTranscriptLimit),
			})
		}
		out.YouTube = res
	}

	return out
}
