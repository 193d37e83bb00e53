package pricing

import (
	"context"
	"math"
	"strings"
	"time"

	"marketplace/internal/adapters/ai"
	"marketplace/internal/agents"
	"marketplace/internal/domain/listing"
	"marketplace/internal/metrics"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
	"marketplace/pkg/templates"
)

const (
	agentTypeFallback  = "price_suggestor_fallback"
	agentTypeEmergency = "price_suggestor_emergency"
)

// Renderer renders a named prompt template
type Renderer interface {
	Render(id string, data any) (string, error)
}

// Config tunes the price suggestion agent
type Config struct {
	Tables       Tables
	AgeTolerance float64
	Prompts      Renderer
	Executor     []agents.Option
}

// Agent suggests fair resale prices. Suggest never fails: it degrades from the
// generated answer to closed-form arithmetic and finally to a bracket around the
// asking price.
type Agent struct {
	pipeline *pipeline
	executor *agents.Executor[*Job, Result]
	log      *logger.Logger
}

// NewAgent creates a price suggestion agent over repo and generator
func NewAgent(repo listing.Repository, generator ai.Generator, cfg Config) *Agent {
	if cfg.Tables.Depreciation == nil {
		cfg.Tables = DefaultTables()
	}
	if cfg.Prompts == nil {
		cfg.Prompts = templates.Get()
	}

	p := &pipeline{
		repo:     repo,
		tables:   cfg.Tables,
		analyzer: NewMarketAnalyzer(repo, cfg.Tables, cfg.AgeTolerance),
		prompts:  cfg.Prompts,
		log:      logger.Get().With("component", "price_suggestor"),
	}

	return &Agent{
		pipeline: p,
		executor: agents.NewExecutor[*Job, Result](p, generator, cfg.Executor...),
		log:      p.log,
	}
}

// Suggest prices req, degrading through the fallback tiers instead of failing
func (a *Agent) Suggest(ctx context.Context, req Request) Result {
	start := time.Now()

	result, meta, err := a.executor.Process(ctx, NewJob(req))
	if err == nil {
		result.Metadata = meta
		metrics.RecordPricing(string(result.Tier), string(result.FraudAnalysis.RiskLevel))
		return result
	}

	log := a.log.With("execution_id", meta.ExecutionID, "trace_id", meta.TraceID)
	log.Infow("Generated pricing unavailable, using mathematical fallback", "error", err)

	result, ferr := a.pipeline.fallbackPricing(req)
	if ferr != nil {
		log.Warnw("Fallback pricing failed, using emergency estimate", "error", ferr)
		result = emergencyPricing(req)
		meta.AgentType = agentTypeEmergency
	} else {
		meta.AgentType = agentTypeFallback
	}

	meta.ProcessingTime = time.Since(start).Seconds()
	result.Metadata = meta
	metrics.RecordPricing(string(result.Tier), "")
	return result
}

// Statistics returns the agent's execution counters
func (a *Agent) Statistics() agents.Statistics {
	return a.executor.Statistics()
}

// Type returns the agent type
func (a *Agent) Type() agents.AgentType {
	return agents.AgentPriceSuggestor
}

// pipeline is the strategy the executor drives for pricing
type pipeline struct {
	repo     listing.Repository
	tables   Tables
	analyzer *MarketAnalyzer
	prompts  Renderer
	log      *logger.Logger
}

var (
	_ agents.Agent[*Job, Result]    = (*pipeline)(nil)
	_ agents.Enricher[*Job, Result] = (*pipeline)(nil)
)

func (p *pipeline) Type() agents.AgentType {
	return agents.AgentPriceSuggestor
}

func (p *pipeline) Validate(job *Job) error {
	if job == nil {
		return errors.MissingField("request")
	}
	return ValidateRequest(job.Request)
}

// ValidateRequest reports the first missing or malformed field of req
func ValidateRequest(req Request) error {
	required := []struct {
		field string
		value string
	}{
		{"title", req.Title},
		{"category", req.Category},
		{"brand", req.Brand},
		{"condition", req.Condition},
		{"location", req.Location},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errors.MissingField(r.field)
		}
	}

	if math.IsNaN(req.AgeMonths) || math.IsInf(req.AgeMonths, 0) || req.AgeMonths < 0 {
		return errors.NewValidationError("age_months", "must be a non-negative number", req.AgeMonths)
	}

	if math.IsNaN(req.AskingPrice) || math.IsInf(req.AskingPrice, 0) || req.AskingPrice <= 0 {
		return errors.NewValidationError("asking_price", "must be a positive number", req.AskingPrice)
	}

	if !listing.Condition(req.Condition).Valid() {
		return errors.NewValidationError("condition", "must be one of: Like New, Good, Fair", req.Condition)
	}

	return nil
}

// promptData is the view rendered by the pricing templates
type promptData struct {
	Item   Request
	Market marketView
}

type marketView struct {
	SimilarCount       int
	AvgPrice           float64
	MinPrice           float64
	MaxPrice           float64
	DepreciationRate   float64
	LocationMultiplier float64
	BrandMultiplier    float64
	Trend              listing.Trend
}

// BuildPrompt analyzes the market and records the snapshot on job for Enrich.
// Without a usable analysis the reduced template is rendered instead.
func (p *pipeline) BuildPrompt(ctx context.Context, job *Job) (string, error) {
	job.market, job.marketErr = p.analyzer.Analyze(ctx, job.Request)
	if job.marketErr != nil {
		p.log.Errorw("Market analysis failed", "category", job.Request.Category, "error", job.marketErr)
		return p.prompts.Render(templates.PricingSuggestBasic, promptData{Item: job.Request})
	}

	m := job.market
	prompt, err := p.prompts.Render(templates.PricingSuggest, promptData{
		Item: job.Request,
		Market: marketView{
			SimilarCount:       len(m.SimilarItems),
			AvgPrice:           m.AvgPrice,
			MinPrice:           m.MinPrice,
			MaxPrice:           m.MaxPrice,
			DepreciationRate:   m.DepreciationRate,
			LocationMultiplier: m.LocationMultiplier,
			BrandMultiplier:    m.BrandMultiplier,
			Trend:              m.Trend,
		},
	})
	if err != nil {
		p.log.Errorw("Pricing prompt failed, using reduced prompt", "error", err)
		return p.prompts.Render(templates.PricingSuggestBasic, promptData{Item: job.Request})
	}
	return prompt, nil
}

// Parse validates the generated answer
func (p *pipeline) Parse(raw string) (Result, error) {
	fields, err := agents.DecodeFields(raw)
	if err != nil {
		return Result{}, err
	}

	if err := fields.Require("suggested_price_range", "reasoning", "confidence", "market_position", "recommendations"); err != nil {
		return Result{}, err
	}

	priceRange, err := parseRange(fields)
	if err != nil {
		return Result{}, err
	}

	reasoning, err := fields.Text("reasoning")
	if err != nil {
		return Result{}, err
	}

	confidence, err := fields.Probability("confidence")
	if err != nil {
		return Result{}, err
	}

	position, err := fields.Enum("market_position",
		string(PositionUnderpriced), string(PositionFairlyPriced), string(PositionOverpriced))
	if err != nil {
		return Result{}, err
	}

	return Result{
		SuggestedPriceRange: priceRange,
		Reasoning:           reasoning,
		Confidence:          confidence,
		MarketPosition:      MarketPosition(position),
		Recommendations:     fields.StringList("recommendations"),
		Tier:                TierLLM,
	}, nil
}

func parseRange(fields agents.Fields) (PriceRange, error) {
	const field = "suggested_price_range"

	obj, err := fields.Object(field)
	if err != nil {
		return PriceRange{}, err
	}
	if err := obj.Require("min", "max"); err != nil {
		return PriceRange{}, errors.NewParseError(field, "must contain min and max")
	}

	lo, err := obj.Number("min")
	if err != nil {
		return PriceRange{}, errors.NewParseError(field+".min", "must be a number")
	}
	hi, err := obj.Number("max")
	if err != nil {
		return PriceRange{}, errors.NewParseError(field+".max", "must be a number")
	}

	if lo < 0 || hi < 0 {
		return PriceRange{}, errors.NewParseError(field, "prices must be non-negative")
	}
	if lo > hi {
		return PriceRange{}, errors.NewParseError(field, "min must not exceed max")
	}

	return PriceRange{Min: rupees(lo), Max: rupees(hi)}, nil
}

// Enrich adds fraud analysis and lifts confidence to the locally computed score
func (p *pipeline) Enrich(ctx context.Context, job *Job, out Result) Result {
	fraud := p.detectFraud(ctx, job.Request)
	out.FraudAnalysis = &fraud
	out.Confidence = math.Max(out.Confidence, p.confidenceScore(job.Request, job.market))
	out.Tier = TierLLM
	return out
}
