package video

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/circuitbreaker"
)

// TranscriptFetcher retrieves the transcript text for a video ID.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

// TranscriptClient calls a transcript sidecar service that exposes
// GET /transcript?video_id=... and returns timed text segments.
type TranscriptClient struct {
	baseURL string
	http    *circuitbreaker.HTTPWrapper
	logger  *zap.Logger
}

// NewTranscriptClient creates a transcript client for the given base URL.
func NewTranscriptClient(baseURL string, logger *zap.Logger) *TranscriptClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{Timeout: 20 * time.Second}
	return &TranscriptClient{
		baseURL: baseURL,
		http:    circuitbreaker.NewHTTPWrapper(httpClient, "transcript", logger),
		logger:  logger,
	}
}

type transcriptResponse struct {
	VideoID  string `json:"video_id"`
	Segments []struct {
		Text     string  `json:"text"`
		Start    float64 `json:"start"`
		Duration float64 `json:"duration"`
	} `json:"segments"`
	Error string `json:"error,omitempty"`
}

// Fetch returns the transcript as one joined string.
func (c *TranscriptClient) Fetch(ctx context.Context, videoID string) (string, error) {
	params := url.Values{}
	params.Set("video_id", videoID)

	reqURL := fmt.Sprintf("%s/transcript?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("build transcript request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcript request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcript response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcript service returned status %d", resp.StatusCode)
	}

	var tr transcriptResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("decode transcript response: %w", err)
	}
	if tr.Error != "" {
		return "", fmt.Errorf("transcript unavailable: %s", tr.Error)
	}

	parts := make([]string, 0, len(tr.Segments))
	for _, seg := range tr.Segments {
		if seg.Text != "" {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, " "), nil
}
