package ai

import (
	"context"
	"strings"

	"marketplace/internal/adapters/config"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

// SelectProvider resolves the backend from configured credentials.
// Priority: Gemini (GOOGLE_API_KEY or GEMINI_API_KEY), Groq, HuggingFace, OpenAI, then the offline mock.
// AI_PROVIDER overrides the detection.
func SelectProvider(cfg config.AIConfig) ProviderName {
	if forced := ProviderName(NormalizeProviderName(cfg.Provider)); forced.IsValid() {
		return forced
	}

	switch {
	case cfg.GeminiAPIKey() != "":
		return ProviderGemini
	case cfg.GroqKey != "":
		return ProviderGroq
	case cfg.HuggingFaceKey != "":
		return ProviderHuggingFace
	case cfg.OpenAIKey != "":
		return ProviderOpenAI
	default:
		return ProviderMock
	}
}

// NewGenerator builds the configured backend without decorators
func NewGenerator(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	provider := SelectProvider(cfg)
	log := logger.Get().With("component", "ai_factory")

	var (
		gen Generator
		err error
	)

	switch provider {
	case ProviderGemini:
		gen, err = NewGeminiGenerator(ctx, cfg.GeminiAPIKey(), cfg.GeminiModel, cfg.Temperature, cfg.Timeout)
	case ProviderGroq:
		gen, err = NewGroqGenerator(cfg.GroqKey, cfg.GroqBaseURL, cfg.GroqModel, cfg.Temperature, cfg.Timeout)
	case ProviderHuggingFace:
		gen, err = NewHuggingFaceGenerator(cfg.HuggingFaceKey, cfg.HuggingFaceURL, cfg.HuggingFaceModel, cfg.Temperature, cfg.Timeout)
	case ProviderOpenAI:
		gen, err = NewOpenAIGenerator(cfg.OpenAIKey, cfg.OpenAIModel, cfg.Temperature, cfg.Timeout)
	default:
		log.Warnw("No generation credentials configured, using offline mock backend")
		return NewMockGenerator(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "init %s generator", provider)
	}

	log.Infow("Text generation backend selected", "provider", provider)
	return gen, nil
}

// Build returns the configured backend behind the rate limiter and, when cache is non-nil, the reply cache.
// Cache hits do not consume rate limit tokens.
func Build(ctx context.Context, cfg config.AIConfig, cache Cache) (Generator, error) {
	gen, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gen = NewRateLimitedGenerator(gen, cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	return NewCachedGenerator(gen, cache, cfg.CacheTTL), nil
}

// NormalizeProviderName makes provider lookup more forgiving.
func NormalizeProviderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
