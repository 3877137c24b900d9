package video

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/config"
	"github.com/advista-ai/orchestrator/internal/metrics"
	"github.com/advista-ai/orchestrator/internal/models"
)

// Searcher runs video-platform searches.
type Searcher interface {
	SearchVideos(ctx context.Context, query string) (models.VideoSearchResponse, error)
}

// Service runs the video research unit: search, pick the top results,
// and attach transcripts. It degrades instead of failing: provider or
// transcript errors produce an emptier result, never an error.
type Service struct {
	searcher    Searcher
	transcripts TranscriptFetcher
	topVideos   int
	topShorts   int
	logger      *zap.Logger
}

// NewService creates a video research service.
func NewService(searcher Searcher, transcripts TranscriptFetcher, cfg config.VideoConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	topVideos := cfg.TopVideos
	if topVideos <= 0 {
		topVideos = 3
	}
	topShorts := cfg.TopShorts
	if topShorts <= 0 {
		topShorts = 5
	}
	return &Service{
		searcher:    searcher,
		transcripts: transcripts,
		topVideos:   topVideos,
		topShorts:   topShorts,
		logger:      logger,
	}
}

// Research searches for the query and returns the top videos and shorts
// with transcripts attached. The result always carries the query; an
// unreachable provider yields empty video and short lists.
func (s *Service) Research(ctx context.Context, query string) *models.VideoResearch {
	out := &models.VideoResearch{Query: query}
	if query == "" {
		return out
	}

	resp, err := s.searcher.SearchVideos(ctx, query)
	if err != nil {
		s.logger.Warn("Video search failed, continuing without video research",
			zap.String("query", query),
			zap.Error(err),
		)
		return out
	}
	if resp.Error != "" {
		s.logger.Warn("Video search returned provider error",
			zap.String("query", query),
			zap.String("provider_error", resp.Error),
		)
		return out
	}

	out.Videos = s.collectVideos(ctx, resp.VideoResults)
	out.Shorts = s.collectShorts(ctx, resp.ShortsResults)

	s.logger.Info("Video research completed",
		zap.String("query", query),
		zap.Int("videos", len(out.Videos)),
		zap.Int("shorts", len(out.Shorts)),
	)
	return out
}

func (s *Service) collectVideos(ctx context.Context, raw []models.RawVideo) []models.VideoResult {
	if len(raw) > s.topVideos {
		raw = raw[:s.topVideos]
	}

	videos := make([]models.VideoResult, len(raw))
	var wg sync.WaitGroup
	for i, rv := range raw {
		videos[i] = models.VideoResult{
			Title:         rv.Title,
			Link:          rv.Link,
			Channel:       rv.Channel.Name,
			PublishedDate: rv.PublishedDate,
			Views:         rv.Views,
			Length:        rv.Length,
			Description:   rv.Description,
			VideoID:       ExtractVideoID(rv.Link),
		}
		if videos[i].VideoID == "" {
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			videos[i].Transcript = s.fetchTranscript(ctx, videos[i].VideoID)
		}(i)
	}
	wg.Wait()
	return videos
}

func (s *Service) collectShorts(ctx context.Context, groups []models.RawShortGroup) []models.ShortResult {
	var flat []models.RawShort
	for _, g := range groups {
		flat = append(flat, g.Shorts...)
	}
	if len(flat) > s.topShorts {
		flat = flat[:s.topShorts]
	}

	shorts := make([]models.ShortResult, len(flat))
	var wg sync.WaitGroup
	for i, rs := range flat {
		id := rs.VideoID
		if id == "" {
			id = ExtractVideoID(rs.Link)
		}
		shorts[i] = models.ShortResult{
			Title:         rs.Title,
			Link:          rs.Link,
			Views:         rs.Views,
			ViewsOriginal: rs.ViewsOriginal,
			VideoID:       id,
		}
		if id == "" {
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			shorts[i].Transcript = s.fetchTranscript(ctx, shorts[i].VideoID)
		}(i)
	}
	wg.Wait()
	return shorts
}

// fetchTranscript never fails: a missing transcript is an empty string.
func (s *Service) fetchTranscript(ctx context.Context, videoID string) string {
	if s.transcripts == nil {
		return ""
	}
	text, err := s.transcripts.Fetch(ctx, videoID)
	if err != nil {
		metrics.TranscriptFetches.WithLabelValues("error").Inc()
		s.logger.Debug("Transcript fetch failed",
			zap.String("video_id", videoID),
			zap.Error(err),
		)
		return ""
	}
	if text == "" {
		metrics.TranscriptFetches.WithLabelValues("empty").Inc()
		return ""
	}
	metrics.TranscriptFetches.WithLabelValues("success").Inc()
	return text
}
