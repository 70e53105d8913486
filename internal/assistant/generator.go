// Package assistant answers chat prompts with an OpenAI-compatible
// chat-completions backend and posts the replies back into rooms.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// FallbackReply is returned when the backend answers with no content.
const FallbackReply = "No response from AI"

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("assistant: backend not configured")

// Generator produces a reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config selects and tunes the backend.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
	MaxRetries   int
}

// OpenAIClient is a Generator backed by any OpenAI-compatible API, such
// as Together.ai.
type OpenAIClient struct {
	client       openai.Client
	model        string
	systemPrompt string
}

var _ Generator = (*OpenAIClient)(nil)

// NewOpenAIClient creates a chat-completions client.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("assistant: model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAIClient{
		client:       openai.NewClient(opts...),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
	}, nil
}

// Generate sends the prompt, preceded by the system prompt when one is set.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if c.systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(c.systemPrompt))
	}
	messages = append(messages, openai.UserMessage(prompt))

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(completion.Choices) == 0 {
		return FallbackReply, nil
	}
	reply := strings.TrimSpace(completion.Choices[0].Message.Content)
	if reply == "" {
		return FallbackReply, nil
	}
	return reply, nil
}
