// Package gemini provides a client for the Google Gemini API
package gemini

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/bobmcallan/thesis/internal/common"
	"github.com/bobmcallan/thesis/internal/interfaces"
)

const (
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 2 * time.Minute
)

// Client implements the LLMClient interface
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	retry   RetryConfig
	logger  *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithTimeout sets the per-call timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetryConfig sets the retry behavior
func WithRetryConfig(retry RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = retry
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client:  genaiClient,
		model:   DefaultModel,
		timeout: DefaultTimeout,
		retry:   NewDefaultRetryConfig(),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GenerateContent generates text from a prompt. Each attempt is bounded by
// the configured timeout; transient failures are retried with exponential
// backoff until MaxAttempts is exhausted, then the last error is returned.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			wait := c.retry.Backoff(attempt - 1)
			c.logger.Warn().
				Int("attempt", attempt+1).
				Dur("backoff", wait).
				Err(lastErr).
				Msg("Retrying content generation")

			select {
			case <-ctx.Done():
				return "", fmt.Errorf("generation canceled: %w", ctx.Err())
			case <-time.After(wait):
			}
		}

		text, err := c.generateOnce(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		// No point retrying once the run's own deadline has passed.
		if ctx.Err() != nil {
			return "", fmt.Errorf("generation canceled: %w", ctx.Err())
		}
	}

	return "", fmt.Errorf("generation failed after %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

func (c *Client) generateOnce(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug().Str("model", c.model).Int("prompt_len", len(prompt)).Msg("Generating content")

	contents := genai.Text(prompt)
	result, err := c.client.Models.GenerateContent(callCtx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(result)
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}

// Ensure Client implements LLMClient
var _ interfaces.LLMClient = (*Client)(nil)
