package ai

import "context"

// Generator is the text generation gateway consumed by the agents.
// Implementations make a single blocking call per invocation and never retry;
// retries belong to the agent pipeline.
type Generator interface {
	// Name identifies the backend in logs, metrics and errors
	Name() string

	// Generate returns the raw completion text for prompt.
	// Transport errors, non-2xx responses and empty payloads are reported as *errors.GenerationError.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderName represents a text generation backend identifier
type ProviderName string

const (
	ProviderGemini      ProviderName = "gemini"
	ProviderGroq        ProviderName = "groq"
	ProviderHuggingFace ProviderName = "huggingface"
	ProviderOpenAI      ProviderName = "openai"
	ProviderMock        ProviderName = "mock"
)

// String returns the string representation of the provider name
func (p ProviderName) String() string {
	return string(p)
}

// IsValid checks if the provider name is supported
func (p ProviderName) IsValid() bool {
	switch p {
	case ProviderGemini, ProviderGroq, ProviderHuggingFace, ProviderOpenAI, ProviderMock:
		return true
	default:
		return false
	}
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc struct {
	ProviderName string
	Fn           func(ctx context.Context, prompt string) (string, error)
}

func (g GeneratorFunc) Name() string { return g.ProviderName }

func (g GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return g.Fn(ctx, prompt)
}
