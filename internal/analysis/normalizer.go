package analysis

import (
	"encoding/json"
	"net/url"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/models"
)

const (
	topResultCount      = 10
	maxQuestions        = 5
	organicSnippetCount = 5
	maxKeySnippets      = 15
	minSnippetLength    = 20
	maxAnswerLength     = 500
)

// Normalizer turns raw provider payloads into clean insight records.
// It is pure: the same input always yields the same output, and inputs
// are never mutated.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a normalizer.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger}
}

// Process normalizes every collected category plus the video research.
func (n *Normalizer) Process(raw *models.RawResults) *models.ProcessedResults {
	out := &models.ProcessedResults{}

	var available []string
	for _, cat := range models.Categories {
		res, ok := raw.Categories[cat]
		if !ok {
			continue
		}
		ins := n.NormalizeCategory(cat, res.Query, res.Response)
		if ins == nil {
			continue
		}
		out.SetCategory(cat, ins)
		available = append(available, string(cat))
	}

	if raw.YouTube != nil {
		out.YouTubeInsights = &models.YouTubeInsights{
			Query:  raw.YouTube.Query,
			Videos: raw.YouTube.Videos,
			Shorts: raw.YouTube.Shorts,
		}
	}

	unique := out.UniqueSources()
	out.TotalSources = len(unique)
	out.ProcessingSummary = models.ProcessingSummary{
		CategoriesProcessed: len(available),
		TotalUniqueSources:  len(unique),
		CategoriesAvailable: available,
	}

	n.logger.Info("Raw results normalized",
		zap.Int("categories", len(available)),
		zap.Int("unique_sources", len(unique)),
	)
	return out
}

// NormalizeCategory cleans one category payload. Payloads carrying a
// provider error produce nil: the category is simply absent downstream.
func (n *Normalizer) NormalizeCategory(cat models.Category, query string, resp models.SearchResponse) *models.CategoryInsights {
	if resp.Error != "" {
		n.logger.Warn("Skipping category with provider error",
			zap.String("category", string(cat)),
			zap.String("provider_error", resp.Error),
		)
		return nil
	}

	ins := &models.CategoryInsights{
		Category:     cat,
		Query:        query,
		TotalResults: resp.SearchInformation.TotalResults,
	}

	for _, org := range resp.OrganicResults {
		if len(ins.TopResults) >= topResultCount {
			break
		}
		if org.Title == "" && org.Link == "" {
			continue
		}
		ins.TopResults = append(ins.TopResults, models.OrganicResult{
			Position: org.Position,
			Title:    org.Title,
			Link:     org.Link,
			Snippet:  org.Snippet,
			Source:   sourceFor(org),
			Date:     dateFor(org),
		})
	}

	for _, q := range resp.RelatedQuestions {
		if q.Type == "ai_overview" {
			continue
		}
		if q.Question == "" {
			continue
		}
		if len(ins.RelatedQuestions) >= maxQuestions {
			break
		}
		ins.RelatedQuestions = append(ins.RelatedQuestions, models.RelatedQuestion{
			Question:    q.Question,
			Answer:      truncate(answerFor(q), maxAnswerLength),
			SourceTitle: q.Title,
			SourceLink:  q.Link,
		})
	}

	ins.AIOverview = extractAIOverview(resp)
	ins.KeySnippets = keySnippets(ins)
	ins.Sources = sources(resp.OrganicResults)
	return ins
}

// extractAIOverview gathers overview content from the dedicated field
// and from related-question entries tagged as overview blocks.
func extractAIOverview(resp models.SearchResponse) models.AIOverview {
	var overview models.AIOverview

	var blocks []models.RawTextBlock
	if len(resp.AIOverview) > 0 {
		var parsed struct {
			TextBlocks []models.RawTextBlock `json:"text_blocks"`
		}
		if err := json.Unmarshal(resp.AIOverview, &parsed); err == nil {
			blocks = append(blocks, parsed.TextBlocks...)
		}
	}
	for _, q := range resp.RelatedQuestions {
		if q.Type == "ai_overview" {
			blocks = append(blocks, q.TextBlocks...)
		}
	}

	for _, b := range blocks {
		if b.Snippet != "" {
			overview.Snippets = append(overview.Snippets, b.Snippet)
		}
		for _, item := range b.List {
			if item.Snippet != "" {
				overview.KeyPoints = append(overview.KeyPoints, item.Snippet)
			}
		}
	}
	return overview
}

// keySnippets builds the ranked snippet digest: overview text first,
// then key points, Q&A answers, and finally organic snippets. Entries
// shorter than 20 characters are dropped, duplicates are removed
// case-insensitively, and the list is capped at 15.
func keySnippets(ins *models.CategoryInsights) []string {
	var candidates []string
	candidates = append(candidates, ins.AIOverview.Snippets...)
	candidates = append(candidates, ins.AIOverview.KeyPoints...)
	for _, q := range ins.RelatedQuestions {
		candidates = append(candidates, truncate(q.Answer, maxAnswerLength))
	}
	for i, r := range ins.TopResults {
		if i >= organicSnippetCount {
			break
		}
		candidates = append(candidates, r.Snippet)
	}

	seen := make(map[string]struct{})
	var out []string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if len(c) <= minSnippetLength {
			continue
		}
		key := strings.ToLower(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
		if len(out) >= maxKeySnippets {
			break
		}
	}
	return out
}

// answerFor derives a question's answer from its direct snippet or, when
// that is absent, by joining its text blocks. List items get a bullet.
func answerFor(q models.RawQuestion) string {
	if q.Snippet != "" {
		return q.Snippet
	}
	var parts []string
	for _, b := range q.TextBlocks {
		if b.Snippet != "" {
			parts = append(parts, b.Snippet)
		}
		for _, item := range b.List {
			if item.Snippet != "" {
				parts = append(parts, "- "+item.Snippet)
			}
		}
	}
	return strings.Join(parts, " ")
}

func sources(organics []models.RawOrganic) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, org := range organics {
		s := sourceFor(org)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// sourceFor prefers the provider's source label and falls back to the
// link's host with any www. prefix stripped.
func sourceFor(org models.RawOrganic) string {
	if org.Source != "" {
		return org.Source
	}
	u, err := url.Parse(org.Link)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// dateFor prefers the explicit date; forum engines report recency in
// displayed_meta instead.
func dateFor(org models.RawOrganic) string {
	if org.Date != "" {
		return org.Date
	}
	return org.DisplayedMeta
}

// truncate cuts s to at most n bytes, backing off to a rune boundary so
// the result stays valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
