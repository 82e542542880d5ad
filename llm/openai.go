// ABOUTME: OpenAI Chat Completions adapter implementing the Chat interface.
// ABOUTME: Translates Request messages and reasoning effort into openai-go params, with retry on transient failures.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIChat implements Chat using the OpenAI Chat Completions API.
type OpenAIChat struct {
	client openai.Client
	model  string
	retry  RetryPolicy
}

type openAIConfig struct {
	baseURL string
	retry   RetryPolicy
}

// OpenAIOption is a functional option for configuring an OpenAIChat.
type OpenAIOption func(*openAIConfig)

// WithRetryPolicy overrides the default retry policy for transient failures.
func WithRetryPolicy(policy RetryPolicy) OpenAIOption {
	return func(cfg *openAIConfig) {
		cfg.retry = policy
	}
}

// WithBaseURL sets the base URL for API requests. Used for testing and
// OpenAI-compatible endpoints.
func WithBaseURL(url string) OpenAIOption {
	return func(cfg *openAIConfig) {
		cfg.baseURL = url
	}
}

// NewOpenAIChat creates a Chat Completions client. The model is the default
// used when a Request does not name one. The SDK's internal retries are
// disabled; the package retry policy is the single retry layer.
func NewOpenAIChat(apiKey, model string, opts ...OpenAIOption) *OpenAIChat {
	cfg := openAIConfig{retry: DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(&cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &OpenAIChat{
		client: openai.NewClient(reqOpts...),
		model:  model,
		retry:  cfg.retry,
	}
}

// Complete sends a single chat completion request and returns the
// assistant's text content.
func (c *OpenAIChat) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: convertMessages(req.Messages),
	}
	if req.ReasoningEffort != "" {
		params.ReasoningEffort = openai.ReasoningEffort(req.ReasoningEffort)
	}

	var text string
	err := Retry(ctx, c.retry, func() error {
		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return classifyError("openai", err)
		}
		if len(resp.Choices) == 0 {
			return &ProviderError{
				SDKError: SDKError{Message: "chat completion returned no choices"},
				Provider: "openai",
			}
		}
		text = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleDeveloper:
			out = append(out, openai.DeveloperMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// classifyError maps an openai-go error into the package error hierarchy.
// Rate limits and server errors are retryable; everything else is not.
func classifyError(provider string, err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		retryable := apierr.StatusCode == 429 || apierr.StatusCode >= 500
		return &ProviderError{
			SDKError: SDKError{
				Message: fmt.Sprintf("%s API error (status %d)", provider, apierr.StatusCode),
				Cause:   err,
			},
			Provider:   provider,
			StatusCode: apierr.StatusCode,
			Retryable:  retryable,
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return &NetworkError{
		SDKError: SDKError{
			Message: fmt.Sprintf("%s request failed", provider),
			Cause:   err,
		},
	}
}
