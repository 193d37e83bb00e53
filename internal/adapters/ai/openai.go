package ai

import (
	"context"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

const chatMaxTokens = 1024

// ChatCompletionGenerator calls an OpenAI-compatible chat completions API.
// Groq exposes the same API under its own base URL.
type ChatCompletionGenerator struct {
	client      openai.Client
	provider    ProviderName
	model       string
	temperature float64
	timeout     time.Duration
	log         *logger.Logger
}

// ChatCompletionConfig configures a ChatCompletionGenerator
type ChatCompletionConfig struct {
	Provider    ProviderName
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// NewChatCompletionGenerator creates a generator for OpenAI or any compatible backend
func NewChatCompletionGenerator(cfg ChatCompletionConfig) (*ChatCompletionGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "%s API key is required", cfg.Provider)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &ChatCompletionGenerator{
		client:      openai.NewClient(opts...),
		provider:    cfg.Provider,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		log:         logger.Get().With("component", "chat_generator", "provider", cfg.Provider, "model", cfg.Model),
	}, nil
}

// NewGroqGenerator creates a generator against Groq's OpenAI-compatible endpoint
func NewGroqGenerator(apiKey, baseURL, model string, temperature float64, timeout time.Duration) (*ChatCompletionGenerator, error) {
	return NewChatCompletionGenerator(ChatCompletionConfig{
		Provider:    ProviderGroq,
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       model,
		Temperature: temperature,
		Timeout:     timeout,
	})
}

// NewOpenAIGenerator creates a generator against the OpenAI API
func NewOpenAIGenerator(apiKey, model string, temperature float64, timeout time.Duration) (*ChatCompletionGenerator, error) {
	return NewChatCompletionGenerator(ChatCompletionConfig{
		Provider:    ProviderOpenAI,
		APIKey:      apiKey,
		Model:       model,
		Temperature: temperature,
		Timeout:     timeout,
	})
}

func (g *ChatCompletionGenerator) Name() string { return g.provider.String() }

// Generate sends prompt as a single user message and returns the first choice
func (g *ChatCompletionGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(g.temperature),
		MaxTokens:   openai.Int(chatMaxTokens),
	})
	if err != nil {
		return "", errors.NewGenerationError(g.Name(), err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.NewGenerationError(g.Name(), errors.ErrEmptyResponse)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.NewGenerationError(g.Name(), errors.ErrEmptyResponse)
	}

	g.log.Debugw("Chat completion received",
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return text, nil
}
