package ai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5-20250929"

// Client calls the reasoning model over the Anthropic API. It is the
// alternative to spawning the CLI subprocess, selected with
// `engine: api` in the project configuration. Calls go through retry
// with backoff, a circuit breaker, and a concurrency limit.
type Client struct {
	client  *anthropic.Client
	model   string
	retry   RetryConfig
	breaker *CircuitBreaker
	sem     *semaphore.Weighted
}

// ClientConfig holds API client configuration.
type ClientConfig struct {
	APIKey string // falls back to ANTHROPIC_API_KEY
	Model  string
	Retry  RetryConfig
}

// NewClient creates an API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	var sem *semaphore.Weighted
	if retry.MaxConcurrentCalls > 0 {
		sem = semaphore.NewWeighted(int64(retry.MaxConcurrentCalls))
	}

	return &Client{
		client:  &client,
		model:   model,
		retry:   retry,
		breaker: NewCircuitBreaker(retry.FailureThreshold, retry.SuccessThreshold, retry.OpenTimeout),
		sem:     sem,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Complete sends prompt to the model and returns the concatenated text
// content of the response.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var response *anthropic.Message
	err := c.retryWithBackoff(ctx, "analysis", func(attemptCtx context.Context) error {
		resp, apiErr := c.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: 4096,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}
