package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/adapters/ai"
	"marketplace/internal/agents"
	"marketplace/internal/domain/listing"
	"marketplace/internal/repository/memory"
	"marketplace/internal/testsupport"
	"marketplace/pkg/errors"
)

const validReply = `Here is my analysis:
{
  "suggested_price_range": {"min": 30000, "max": 34000},
  "reasoning": "Comparable iPhones sell for less.",
  "confidence": 0.2,
  "market_position": "overpriced",
  "recommendations": ["Lower the price slightly"]
}`

// failingRepo fails every query
type failingRepo struct{}

func (failingRepo) SimilarItems(context.Context, string, string, float64, float64) ([]listing.Listing, error) {
	return nil, errors.ErrUnavailable
}

func (failingRepo) ListByCategory(context.Context, string) ([]listing.Listing, error) {
	return nil, errors.ErrUnavailable
}

func (failingRepo) CategoryStats(context.Context, string) (listing.CategoryStats, error) {
	return listing.CategoryStats{}, errors.ErrUnavailable
}

func (failingRepo) PriceTrend(context.Context, string, string) (listing.PriceTrend, error) {
	return listing.PriceTrend{}, errors.ErrUnavailable
}

func (failingRepo) Count(context.Context) (int, error) {
	return 0, errors.ErrUnavailable
}

func iphoneRequest() Request {
	return Request{
		Title:       "iPhone 12",
		Category:    "Mobile",
		Brand:       "Apple",
		Condition:   "Good",
		AgeMonths:   24,
		AskingPrice: 35000,
		Location:    "Mumbai",
	}
}

func newTestAgent(repo listing.Repository, gen ai.Generator) *Agent {
	if repo == nil {
		repo = memory.NewListingRepositoryFrom(memory.FallbackListings())
	}
	return NewAgent(repo, gen, Config{Executor: []agents.Option{agents.WithRetry(2, 0)}})
}

func TestSuggest_GeneratedAnswer(t *testing.T) {
	gen := testsupport.AlwaysReply(validReply)
	agent := newTestAgent(nil, gen)

	result := agent.Suggest(context.Background(), iphoneRequest())

	assert.Equal(t, TierLLM, result.Tier)
	assert.Equal(t, PriceRange{Min: 30000, Max: 34000}, result.SuggestedPriceRange)
	assert.Equal(t, PositionOverpriced, result.MarketPosition)
	assert.Equal(t, []string{"Lower the price slightly"}, result.Recommendations)
	// 0.5 base + 0.1 one comparable + 0.1 known brand + 0.1 age + 0.1 complete
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)

	require.NotNil(t, result.FraudAnalysis)
	assert.Equal(t, RiskLow, result.FraudAnalysis.RiskLevel)
	assert.Empty(t, result.FraudAnalysis.FraudIndicators)

	assert.Equal(t, "price_suggestor", result.Metadata.AgentType)
	assert.Equal(t, int64(1), result.Metadata.ExecutionID)
	assert.NotEmpty(t, result.Metadata.TraceID)

	require.Len(t, gen.Prompts(), 1)
	prompt := gen.Prompts()[0]
	assert.Contains(t, prompt, "MARKET INTELLIGENCE")
	assert.Contains(t, prompt, "Similar items found: 1")
	assert.Contains(t, prompt, "Current asking: ₹35,000")
}

func TestSuggest_KeepsHigherParsedConfidence(t *testing.T) {
	reply := `{"suggested_price_range":{"min":1,"max":2},"reasoning":"r","confidence":1,"market_position":"fairly_priced","recommendations":"one"}`
	agent := newTestAgent(nil, testsupport.AlwaysReply(reply))

	result := agent.Suggest(context.Background(), iphoneRequest())

	assert.Equal(t, TierLLM, result.Tier)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, []string{"one"}, result.Recommendations)
}

func TestSuggest_FallbackIsClosedForm(t *testing.T) {
	gen := testsupport.AlwaysFail()
	agent := newTestAgent(nil, gen)

	result := agent.Suggest(context.Background(), iphoneRequest())

	// 35000 x 0.95^24 x 0.70 x 1.2 x 1.15 = 9872.15
	assert.Equal(t, TierFallback, result.Tier)
	assert.Equal(t, PriceRange{Min: 8391, Max: 11353}, result.SuggestedPriceRange)
	assert.Equal(t, PositionOverpriced, result.MarketPosition)
	assert.Equal(t, 0.6, result.Confidence)
	assert.Equal(t,
		"Based on mathematical analysis: Good condition Mobile from Apple with 24 months of age. "+
			"Applied 5.0% monthly depreciation, 70% condition adjustment, and location factor for Mumbai.",
		result.Reasoning)
	assert.Equal(t, []string{
		"Consider pricing between ₹8,391 - ₹11,353",
		"Note: This is a basic estimate. Full AI analysis temporarily unavailable.",
	}, result.Recommendations)
	assert.Nil(t, result.FraudAnalysis)

	assert.Equal(t, "price_suggestor_fallback", result.Metadata.AgentType)
	assert.Equal(t, int64(1), result.Metadata.ExecutionID)
	assert.GreaterOrEqual(t, result.Metadata.ProcessingTime, 0.0)
	assert.Equal(t, 2, gen.Calls())
}

func TestSuggest_FallbackOnUnparseableAnswer(t *testing.T) {
	agent := newTestAgent(nil, testsupport.AlwaysReply(`{"suggested_price_range":{"min":5,"max":1}}`))

	result := agent.Suggest(context.Background(), iphoneRequest())

	assert.Equal(t, TierFallback, result.Tier)
}

func TestSuggest_EmergencyWhenFallbackCannotRun(t *testing.T) {
	gen := testsupport.AlwaysReply(validReply)
	agent := newTestAgent(nil, gen)

	req := iphoneRequest()
	req.Location = ""

	result := agent.Suggest(context.Background(), req)

	assert.Equal(t, TierEmergency, result.Tier)
	assert.Equal(t, PriceRange{Min: 28000, Max: 42000}, result.SuggestedPriceRange)
	assert.Equal(t, 0.3, result.Confidence)
	assert.Equal(t, PositionFairlyPriced, result.MarketPosition)
	assert.Equal(t, "AI analysis temporarily unavailable. Showing basic estimate based on your asking price.", result.Reasoning)
	assert.Equal(t, "price_suggestor_emergency", result.Metadata.AgentType)
	assert.Equal(t, 0, gen.Calls(), "validation must stop before generation")
}

func TestSuggest_NeverFailsUnderFailingGateway(t *testing.T) {
	agent := newTestAgent(nil, testsupport.AlwaysFail())

	requests := []Request{
		iphoneRequest(),
		{Title: "Chair", Category: "Furniture", Brand: "Ikea", Condition: "Fair", AgeMonths: 0, AskingPrice: 1, Location: "Goa"},
		{Title: "Old", Category: "Fashion", Brand: "Nike", Condition: "Like New", AgeMonths: 600, AskingPrice: 1e12, Location: "Pune"},
		{Title: "Broken", Category: "Mobile", Brand: "Apple", Condition: "Broken", AgeMonths: -3, AskingPrice: -10, Location: "Delhi"},
		{},
	}

	for _, req := range requests {
		result := agent.Suggest(context.Background(), req)

		assert.GreaterOrEqual(t, result.SuggestedPriceRange.Min, int64(0))
		assert.LessOrEqual(t, result.SuggestedPriceRange.Min, result.SuggestedPriceRange.Max)
		assert.GreaterOrEqual(t, result.Confidence, 0.0)
		assert.LessOrEqual(t, result.Confidence, 1.0)
		assert.NotEqual(t, TierLLM, result.Tier)
	}

	stats := agent.Statistics()
	assert.Equal(t, int64(len(requests)), stats.ExecutionCount)
	assert.Equal(t, int64(0), stats.SuccessCount)
	assert.Equal(t, 0.0, stats.SuccessRate)
}

func TestSuggest_MarketFailureUsesReducedPrompt(t *testing.T) {
	gen := testsupport.AlwaysReply(validReply)
	agent := newTestAgent(failingRepo{}, gen)

	result := agent.Suggest(context.Background(), iphoneRequest())

	assert.Equal(t, TierLLM, result.Tier)
	require.NotNil(t, result.FraudAnalysis)
	assert.Equal(t, cleanFraudAnalysis(), *result.FraudAnalysis)
	// 0.5 base + 0.1 known brand + 0.1 age + 0.1 complete
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)

	prompt := gen.Prompts()[0]
	assert.NotContains(t, prompt, "MARKET INTELLIGENCE")
	assert.Contains(t, prompt, "general market knowledge")
}

func TestSuggest_StatisticsCountEveryCall(t *testing.T) {
	gen := testsupport.NewScriptedGenerator(
		testsupport.Reply{Text: validReply},
		testsupport.Reply{Text: validReply},
		testsupport.Reply{Text: "no json"},
	)
	agent := newTestAgent(nil, gen)

	for i := 0; i < 3; i++ {
		agent.Suggest(context.Background(), iphoneRequest())
	}

	stats := agent.Statistics()
	assert.Equal(t, int64(3), stats.ExecutionCount)
	assert.Equal(t, int64(2), stats.SuccessCount)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
}

func TestSuggest_IdempotentModuloMetadata(t *testing.T) {
	agent := newTestAgent(nil, testsupport.AlwaysReply(validReply))

	first := agent.Suggest(context.Background(), iphoneRequest())
	second := agent.Suggest(context.Background(), iphoneRequest())

	assert.NotEqual(t, first.Metadata.ExecutionID, second.Metadata.ExecutionID)
	first.Metadata, second.Metadata = agents.Metadata{}, agents.Metadata{}
	assert.Equal(t, first, second)
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{name: "missing title", mutate: func(r *Request) { r.Title = " " }, field: "title"},
		{name: "missing category", mutate: func(r *Request) { r.Category = "" }, field: "category"},
		{name: "missing location", mutate: func(r *Request) { r.Location = "" }, field: "location"},
		{name: "negative age", mutate: func(r *Request) { r.AgeMonths = -1 }, field: "age_months"},
		{name: "zero price", mutate: func(r *Request) { r.AskingPrice = 0 }, field: "asking_price"},
		{name: "unknown condition", mutate: func(r *Request) { r.Condition = "Mint" }, field: "condition"},
	}

	require.NoError(t, ValidateRequest(iphoneRequest()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := iphoneRequest()
			tt.mutate(&req)

			err := ValidateRequest(req)
			var verr *errors.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParse_RejectsInvalidAnswers(t *testing.T) {
	p := &pipeline{tables: DefaultTables()}

	tests := []struct {
		name  string
		reply string
		field string
	}{
		{
			name:  "missing reasoning",
			reply: `{"suggested_price_range":{"min":1,"max":2},"confidence":0.5,"market_position":"overpriced","recommendations":[]}`,
			field: "reasoning",
		},
		{
			name:  "range not an object",
			reply: `{"suggested_price_range":[1,2],"reasoning":"r","confidence":0.5,"market_position":"overpriced","recommendations":[]}`,
			field: "suggested_price_range",
		},
		{
			name:  "range missing max",
			reply: `{"suggested_price_range":{"min":1},"reasoning":"r","confidence":0.5,"market_position":"overpriced","recommendations":[]}`,
			field: "suggested_price_range",
		},
		{
			name:  "inverted range",
			reply: `{"suggested_price_range":{"min":3,"max":2},"reasoning":"r","confidence":0.5,"market_position":"overpriced","recommendations":[]}`,
			field: "suggested_price_range",
		},
		{
			name:  "confidence out of range",
			reply: `{"suggested_price_range":{"min":1,"max":2},"reasoning":"r","confidence":1.5,"market_position":"overpriced","recommendations":[]}`,
			field: "confidence",
		},
		{
			name:  "unknown position",
			reply: `{"suggested_price_range":{"min":1,"max":2},"reasoning":"r","confidence":0.5,"market_position":"cheap","recommendations":[]}`,
			field: "market_position",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.reply)
			var perr *errors.ParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tt.field, perr.Field)
		})
	}
}

func TestFallbackPricing_Formula(t *testing.T) {
	p := newTestPipeline(nil)

	tests := []struct {
		name     string
		mutate   func(*Request)
		want     PriceRange
		position MarketPosition
	}{
		// 35000 x 0.95^24 x 0.70 x 1.2 = 8584.48
		{name: "default location", mutate: func(r *Request) { r.Location = "Jaipur" }, want: PriceRange{Min: 7297, Max: 9872}, position: PositionOverpriced},
		// 20000 x 0.97^10 x 0.85 = 12536.21
		{
			name: "unknown category and brand",
			mutate: func(r *Request) {
				*r = Request{Title: "Speaker", Category: "Audio", Brand: "Acme", Condition: "Like New", AgeMonths: 10, AskingPrice: 20000, Location: "Kochi"}
			},
			want:     PriceRange{Min: 10656, Max: 14417},
			position: PositionOverpriced,
		},
		// 2000 x 0.85 x 1.2 x 1.15 = 2346
		{
			name: "new item in premium city",
			mutate: func(r *Request) {
				r.Condition, r.AgeMonths, r.AskingPrice = "Like New", 0, 2000
			},
			want:     PriceRange{Min: 1994, Max: 2698},
			position: PositionFairlyPriced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := iphoneRequest()
			tt.mutate(&req)

			result, err := p.fallbackPricing(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.SuggestedPriceRange)
			assert.Equal(t, tt.position, result.MarketPosition)
			assert.Equal(t, TierFallback, result.Tier)
		})
	}
}
