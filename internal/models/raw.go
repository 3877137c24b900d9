package models

import "encoding/json"

// Raw payload shapes returned by the search provider. Fields mirror the
// provider JSON; only the portions the normalizer reads are declared.

// SearchResponse is a raw web-search payload for one query.
type SearchResponse struct {
	SearchInformation SearchInformation `json:"search_information"`
	OrganicResults    []RawOrganic      `json:"organic_results"`
	RelatedQuestions  []RawQuestion     `json:"related_questions"`
	AIOverview        json.RawMessage   `json:"ai_overview,omitempty"`
	Error             string            `json:"error,omitempty"`
}

type SearchInformation struct {
	TotalResults int64 `json:"total_results"`
}

// RawOrganic is one organic search hit. Forum engines report recency in
// displayed_meta ("40+ comments · 14 years ago") instead of date.
type RawOrganic struct {
	Position      int    `json:"position"`
	Title         string `json:"title"`
	Link          string `json:"link"`
	Snippet       string `json:"snippet"`
	Source        string `json:"source"`
	Date          string `json:"date,omitempty"`
	DisplayedMeta string `json:"displayed_meta,omitempty"`
}

// RawQuestion is a "people also ask" entry. Entries tagged type=ai_overview
// carry the AI overview content in their text blocks.
type RawQuestion struct {
	Type       string         `json:"type,omitempty"`
	Question   string         `json:"question"`
	Snippet    string         `json:"snippet,omitempty"`
	Title      string         `json:"title,omitempty"`
	Link       string         `json:"link,omitempty"`
	TextBlocks []RawTextBlock `json:"text_blocks,omitempty"`
}

type RawTextBlock struct {
	Type    string        `json:"type"`
	Snippet string        `json:"snippet,omitempty"`
	List    []RawListItem `json:"list,omitempty"`
}

// RawListItem is either a bare string or an object with a snippet field,
// depending on the provider's mood.
type RawListItem struct {
	Snippet string
}

func (i *RawListItem) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		i.Snippet = s
		return nil
	}
	var obj struct {
		Snippet string `json:"snippet"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	i.Snippet = obj.Snippet
	return nil
}

func (i RawListItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Snippet string `json:"snippet"`
	}{Snippet: i.Snippet})
}

// VideoSearchResponse is a raw video-platform search payload.
type VideoSearchResponse struct {
	Error         string          `json:"error,omitempty"`
	VideoResults  []RawVideo      `json:"video_results"`
	ShortsResults []RawShortGroup `json:"shorts_results"`
}

type RawVideo struct {
	Title         string     `json:"title"`
	Link          string     `json:"link"`
	Channel       RawChannel `json:"channel"`
	PublishedDate string     `json:"published_date"`
	Views         *int64     `json:"views,omitempty"`
	Length        string     `json:"length"`
	Description   string     `json:"description"`
}

// RawChannel is either an object with a name or a bare string.
type RawChannel struct {
	Name string `json:"name"`
}

func (c *RawChannel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Name = s
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	c.Name = obj.Name
	return nil
}

func (c RawChannel) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name string `json:"name"`
	}{Name: c.Name})
}

// RawShortGroup is one carousel section of short-form results.
type RawShortGroup struct {
	Shorts []RawShort `json:"shorts"`
}

type RawShort struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Views         *int64 `json:"views,omitempty"`
	ViewsOriginal string `json:"views_original"`
	VideoID       string `json:"video_id,omitempty"`
}

// CategoryResult is the uniform per-category dispatch outcome: the query
// that ran and the raw payload it produced.
type CategoryResult struct {
	Category Category       `json:"category"`
	Query    string         `json:"query"`
	Response SearchResponse `json:"results"`
}

// RawResults aggregates everything the dispatch stage collected for a
// session before normalization.
type RawResults struct {
	Categories map[Category]CategoryResult `json:"categories"`
	YouTube    *VideoResearch              `json:"youtube,omitempty"`
}
