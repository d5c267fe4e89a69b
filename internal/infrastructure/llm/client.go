package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/decorlens/backend/internal/domain"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = openai.GPT4oMini
)

// Config holds text completion client settings
type Config struct {
	APIKey            string
	BaseURL           string // any OpenAI-compatible endpoint
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client is a domain.TextCompletionClient backed by an OpenAI-compatible chat completion API
type Client struct {
	api         *openai.Client
	model       string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a completion client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	// burst covers one search's fan-out of compatibility calls
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60), 10)

	return &Client{
		api:         openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		rateLimiter: limiter,
		logger:      logger.Named("llm"),
	}, nil
}

// Complete sends prompt as a single user message and returns the first choice's text
func (c *Client) Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", domain.ErrCompletionFailure, err)
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		c.logger.Warn("completion request failed", zap.Error(err), zap.Duration("latency", time.Since(start)))
		return "", fmt.Errorf("%w: %v", domain.ErrCompletionFailure, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", domain.ErrCompletionFailure)
	}

	c.logger.Debug("completion finished",
		zap.String("model", c.model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("latency", time.Since(start)),
	)

	return resp.Choices[0].Message.Content, nil
}
