package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/spigell/candidate-matcher/internal/ai"
	"github.com/spigell/candidate-matcher/internal/logger"
	"go.uber.org/zap"
)

const defaultModel = "gpt-4o-mini"

// Config holds the OpenAI backend settings. BaseURL allows OpenAI compatible gateways.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxRetries int
	Options    ai.Options
}

// Client completes prompts through the chat completions endpoint.
type Client struct {
	client  *sdk.Client
	model   string
	options ai.Options
	logger  *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	client := sdk.NewClient(opts...)

	return &Client{
		client:  &client,
		model:   model,
		options: cfg.Options.WithDefaults(),
		logger:  logger.WithCommonFields(log, ai.ProviderOpenAI, model),
	}, nil
}

// Complete sends the prompt as a single user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("openai client is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	completion, err := c.client.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.UserMessage(prompt),
		},
		Model:       sdk.ChatModel(c.model),
		Temperature: sdk.Float(c.options.Temperature),
		MaxTokens:   sdk.Int(int64(c.options.MaxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("no response from openai")
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openai returned empty response")
	}

	c.logger.Debug("openai completion finished",
		zap.String("finish_reason", string(completion.Choices[0].FinishReason)),
		zap.Int64("total_tokens", completion.Usage.TotalTokens),
	)

	return content, nil
}

func (c *Client) Provider() string { return ai.ProviderOpenAI }

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}
