package ai

import (
	"context"
	"strings"

	"marketplace/pkg/errors"
)

const mockPriceResponse = `{
    "suggested_price_range": {
        "min": 15000,
        "max": 18000
    },
    "reasoning": "Based on market analysis, this product shows typical depreciation for its category and age. Similar items in the market range from ₹15,000 to ₹18,000.",
    "confidence": 0.75,
    "market_position": "fairly_priced",
    "recommendations": [
        "Price is competitive for current market conditions",
        "Consider slight reduction if item doesn't sell within 2 weeks"
    ]
}`

const mockModerationResponse = `{
    "status": "safe",
    "reason": "Message contains normal product inquiry without policy violations",
    "confidence": 0.9,
    "detected_elements": [],
    "severity": "low",
    "action_recommended": "none"
}`

const mockUnknownResponse = `{"error": "Unknown prompt type", "confidence": 0.5}`

// MockGenerator is the offline stand-in used when no credentials are configured.
// It returns canned replies chosen by sniffing the prompt; moderation prompts
// mention price negotiations, so moderation markers are checked first.
type MockGenerator struct{}

// NewMockGenerator creates the offline generator
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (g *MockGenerator) Name() string { return ProviderMock.String() }

func (g *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.NewGenerationError(g.Name(), err)
	}

	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "moderat") || strings.Contains(lower, "message to analyze"):
		return mockModerationResponse, nil
	case strings.Contains(lower, "price") || strings.Contains(lower, "pricing"):
		return mockPriceResponse, nil
	default:
		return mockUnknownResponse, nil
	}
}
