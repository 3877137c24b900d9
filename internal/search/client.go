package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/advista-ai/orchestrator/internal/circuitbreaker"
	"github.com/advista-ai/orchestrator/internal/config"
	"github.com/advista-ai/orchestrator/internal/metrics"
	"github.com/advista-ai/orchestrator/internal/models"
)

// Search engines understood by the provider.
const (
	EngineGoogle       = "google"
	EngineGoogleForums = "google_forums"
	EngineYouTube      = "youtube"
)

// Client calls a SerpAPI-compatible search provider. All requests go
// through a shared rate limiter and a circuit breaker.
type Client struct {
	baseURL string
	apiKey  string
	http    *circuitbreaker.HTTPWrapper
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a search client from configuration.
func NewClient(cfg config.SearchConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 2.0
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 5
	}
	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    circuitbreaker.NewHTTPWrapper(httpClient, "search", logger),
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// Search runs a web search on the given engine and returns the raw
// provider payload. A payload carrying an error field is returned as-is;
// the caller decides how to degrade.
func (c *Client) Search(ctx context.Context, query, engine string) (models.SearchResponse, error) {
	var out models.SearchResponse

	params := url.Values{}
	params.Set("engine", engine)
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("output", "json")

	body, err := c.get(ctx, params)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode search response: %w", err)
	}

	c.logger.Debug("Search completed",
		zap.String("engine", engine),
		zap.Int("organic_results", len(out.OrganicResults)),
	)
	return out, nil
}

// SearchVideos runs a YouTube search and returns the raw video payload.
func (c *Client) SearchVideos(ctx context.Context, query string) (models.VideoSearchResponse, error) {
	var out models.VideoSearchResponse

	params := url.Values{}
	params.Set("engine", EngineYouTube)
	params.Set("search_query", query)
	params.Set("api_key", c.apiKey)
	params.Set("output", "json")

	body, err := c.get(ctx, params)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode video search response: %w", err)
	}

	c.logger.Debug("Video search completed",
		zap.Int("video_results", len(out.VideoResults)),
		zap.Int("shorts_groups", len(out.ShortsResults)),
	)
	return out, nil
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordProviderCall("search", "error", elapsed)
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordProviderCall("search", "error", elapsed)
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.RecordProviderCall("search", "error", elapsed)
		return nil, fmt.Errorf("search provider returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	metrics.RecordProviderCall("search", "success", elapsed)
	return body, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
