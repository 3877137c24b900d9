package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/advista-ai/orchestrator/internal/config"
	"github.com/advista-ai/orchestrator/internal/metrics"
)

// Client talks to an OpenAI-compatible chat completion endpoint. Each
// request draws the next key from the pool, so rotation happens per
// call rather than per client.
type Client struct {
	pool    *KeyPool
	baseURL string
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates a chat completion client from configuration.
func NewClient(cfg config.LLMConfig, pool *KeyPool, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		pool:    pool,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		timeout: timeout,
		logger:  logger,
	}
}

// Complete sends a system+user prompt pair and returns the assistant text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, system, user, nil)
}

// CompleteJSON is Complete with JSON response mode requested. The raw
// content is still returned as a string; callers own schema parsing.
func (c *Client) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}
	return c.complete(ctx, system, user, format)
}

func (c *Client) complete(ctx context.Context, system, user string, format *openai.ChatCompletionResponseFormat) (string, error) {
	apiKey := c.pool.Next()

	clientCfg := openai.DefaultConfig(apiKey)
	if c.baseURL != "" {
		clientCfg.BaseURL = c.baseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature:    0.3,
		ResponseFormat: format,
	}

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordProviderCall("llm", "error", elapsed)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	metrics.RecordProviderCall("llm", "success", elapsed)

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("Chat completion finished",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return content, nil
}
