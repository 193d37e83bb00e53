package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/adapters/config"
)

func TestSelectProviderPriority(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.AIConfig
		want ProviderName
	}{
		{"no keys", config.AIConfig{}, ProviderMock},
		{"google key", config.AIConfig{GoogleKey: "g", GroqKey: "q", OpenAIKey: "o"}, ProviderGemini},
		{"gemini key", config.AIConfig{GeminiKey: "g", HuggingFaceKey: "h"}, ProviderGemini},
		{"groq before huggingface", config.AIConfig{GroqKey: "q", HuggingFaceKey: "h"}, ProviderGroq},
		{"huggingface before openai", config.AIConfig{HuggingFaceKey: "h", OpenAIKey: "o"}, ProviderHuggingFace},
		{"openai only", config.AIConfig{OpenAIKey: "o"}, ProviderOpenAI},
		{"forced mock", config.AIConfig{Provider: " Mock ", GoogleKey: "g"}, ProviderMock},
		{"unknown override ignored", config.AIConfig{Provider: "claude", GroqKey: "q"}, ProviderGroq},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectProvider(tt.cfg))
		})
	}
}

func TestNewGeneratorWithoutKeysFallsBackToMock(t *testing.T) {
	gen, err := NewGenerator(context.Background(), config.AIConfig{})
	require.NoError(t, err)
	assert.Equal(t, "mock", gen.Name())
}

func TestBuildWrapsBackend(t *testing.T) {
	cache := newMemoryCache()
	gen, err := Build(context.Background(), config.AIConfig{
		RateLimitPerMinute: 600,
		RateLimitBurst:     10,
		CacheTTL:           time.Minute,
	}, cache)
	require.NoError(t, err)

	_, ok := gen.(*CachedGenerator)
	assert.True(t, ok)
	assert.Equal(t, "mock", gen.Name())

	reply, err := gen.Generate(context.Background(), "You are an expert pricing analyst")
	require.NoError(t, err)
	assert.Contains(t, reply, "suggested_price_range")
	assert.Len(t, cache.items, 1)
}

func TestNewGroqGeneratorRequiresKey(t *testing.T) {
	_, err := NewGroqGenerator("", "https://api.groq.com/openai/v1/", "mixtral-8x7b-32768", 0.1, 0)
	assert.Error(t, err)

	gen, err := NewGroqGenerator("key", "https://api.groq.com/openai/v1/", "mixtral-8x7b-32768", 0.1, 0)
	require.NoError(t, err)
	assert.Equal(t, "groq", gen.Name())
}
