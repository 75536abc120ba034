package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"infrachat/app/config"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
)

const (
	requestTimeout = 30 * time.Second
	maxAttempts    = 3
	baseRetryDelay = time.Second
)

// Client wraps the chat-completion endpoint. Rate-limit failures are retried
// with exponential backoff; every other failure propagates immediately.
type Client struct {
	api      *openai.Client
	model    string
	executor failsafe.Executor[openai.ChatCompletionResponse]
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return New(cfg.OpenAI), nil
}

func New(cfg config.ModelConfig) *Client {
	clientConfig := openai.DefaultConfig(cfg.Token)
	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: requestTimeout,
	}

	retry := retrypolicy.NewBuilder[openai.ChatCompletionResponse]().
		HandleIf(func(_ openai.ChatCompletionResponse, err error) bool {
			return IsRateLimited(err)
		}).
		WithBackoff(baseRetryDelay, baseRetryDelay*4).
		WithMaxRetries(maxAttempts - 1).
		Build()

	return &Client{
		api:      openai.NewClientWithConfig(clientConfig),
		model:    cfg.Model,
		executor: failsafe.With(retry),
	}
}

// Complete sends a single user message and returns the trimmed answer text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
}

// CompleteJSON is Complete with the response constrained to a JSON object.
func (c *Client) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
}

// CompleteWithTools runs one function-calling round and returns the names of
// the tools the model chose to invoke.
func (c *Client) CompleteWithTools(ctx context.Context, system, user string, tools []openai.Tool) ([]string, error) {
	resp, err := c.createChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
		Tools: tools,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no chat completion found")
	}

	var names []string
	for _, tc := range resp.Choices[0].Message.ToolCalls {
		names = append(names, tc.Function.Name)
	}

	return names, nil
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.createChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no chat completion found")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) createChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	resp, err := c.executor.WithContext(ctx).Get(
		func() (openai.ChatCompletionResponse, error) {
			return c.api.CreateChatCompletion(ctx, req)
		})
	if err != nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("failed to create chat completion: %w", err)
	}

	return resp, nil
}

// IsRateLimited reports whether err looks like upstream throttling or
// capacity exhaustion.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}

	text := strings.ToLower(err.Error())
	return strings.Contains(text, "rate limit") ||
		strings.Contains(text, "capacity") ||
		strings.Contains(text, "quota")
}
