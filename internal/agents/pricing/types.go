package pricing

import (
	"marketplace/internal/agents"
	"marketplace/internal/domain/listing"
)

// Request describes the item a seller wants priced
type Request struct {
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand"`
	Condition   string  `json:"condition"`
	AgeMonths   float64 `json:"age_months"`
	AskingPrice float64 `json:"asking_price"`
	Location    string  `json:"location"`
}

// MarketPosition compares the asking price with the suggested range
type MarketPosition string

const (
	PositionUnderpriced  MarketPosition = "underpriced"
	PositionFairlyPriced MarketPosition = "fairly_priced"
	PositionOverpriced   MarketPosition = "overpriced"
)

// RiskLevel buckets the fraud score
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Tier names the degradation level that produced a result
type Tier string

const (
	TierLLM       Tier = "llm"
	TierFallback  Tier = "fallback"
	TierEmergency Tier = "emergency"
)

// PriceRange is an inclusive whole-rupee range with 0 <= Min <= Max
type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// FraudAnalysis is the local fraud heuristic outcome
type FraudAnalysis struct {
	FraudScore      float64   `json:"fraud_score"`
	FraudIndicators []string  `json:"fraud_indicators"`
	RiskLevel       RiskLevel `json:"risk_level"`
}

// Result is a price suggestion. It is always well formed, whichever tier produced it.
type Result struct {
	SuggestedPriceRange PriceRange      `json:"suggested_price_range"`
	Reasoning           string          `json:"reasoning"`
	Confidence          float64         `json:"confidence"`
	MarketPosition      MarketPosition  `json:"market_position"`
	Recommendations     []string        `json:"recommendations"`
	FraudAnalysis       *FraudAnalysis  `json:"fraud_analysis,omitempty"`
	Tier                Tier            `json:"tier"`
	Metadata            agents.Metadata `json:"metadata"`
}

// MarketAnalysis is the comparable-listing snapshot a prompt is built from
type MarketAnalysis struct {
	SimilarItems       []listing.Listing
	AvgPrice           float64
	MinPrice           float64
	MaxPrice           float64
	DepreciationRate   float64 // percent per month
	BrandMultiplier    float64
	LocationMultiplier float64
	Trend              listing.Trend
}

// Job carries one request through the pipeline together with the market
// snapshot taken while building its prompt
type Job struct {
	Request Request

	market    MarketAnalysis
	marketErr error
}

// NewJob wraps a request for the executor
func NewJob(req Request) *Job {
	return &Job{Request: req}
}
