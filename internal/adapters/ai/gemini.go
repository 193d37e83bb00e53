package ai

import (
	"context"
	"strings"
	"time"

	"google.golang.org/genai"

	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

const geminiMaxOutputTokens = 2000

// GeminiGenerator calls Google Gemini through the genai SDK
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	log         *logger.Logger
}

// NewGeminiGenerator creates a Gemini-backed generator
func NewGeminiGenerator(ctx context.Context, apiKey, model string, temperature float64, timeout time.Duration) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}

	return &GeminiGenerator{
		client:      client,
		model:       model,
		temperature: float32(temperature),
		timeout:     timeout,
		log:         logger.Get().With("component", "gemini_generator", "model", model),
	}, nil
}

func (g *GeminiGenerator) Name() string { return ProviderGemini.String() }

// Generate sends prompt as a single user turn
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: geminiMaxOutputTokens,
	})
	if err != nil {
		return "", errors.NewGenerationError(g.Name(), err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		g.log.Warnw("Empty response from Gemini", "candidates", len(resp.Candidates))
		return "", errors.NewGenerationError(g.Name(), errors.ErrEmptyResponse)
	}

	return text, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
