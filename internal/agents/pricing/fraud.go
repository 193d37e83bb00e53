package pricing

import (
	"context"
	"math"
	"slices"

	"marketplace/internal/domain/listing"
)

const (
	indicatorLowPrice     = "Suspiciously low price compared to market average"
	indicatorHighPrice    = "Significantly overpriced compared to market"
	indicatorOldAge       = "Unusually old product age"
	indicatorPremiumCheap = "Premium brand with suspiciously low price"
	indicatorLikeNewAged  = "'Like New' condition inconsistent with age"
)

// detectFraud scores the request against category price spread and simple
// consistency rules. Any failure yields a clean low-risk analysis.
func (p *pipeline) detectFraud(ctx context.Context, req Request) FraudAnalysis {
	w := p.tables.Fraud
	var score float64
	indicators := []string{}

	stats, err := p.repo.CategoryStats(ctx, req.Category)
	if err != nil {
		p.log.Warnw("Fraud detection skipped", "category", req.Category, "error", err)
		return cleanFraudAnalysis()
	}

	if stats.HasSpread() {
		if req.AskingPrice < stats.AvgPrice-w.LowPriceSigmas*stats.StdevPrice {
			score += w.LowPrice
			indicators = append(indicators, indicatorLowPrice)
		}
		if req.AskingPrice > stats.AvgPrice+w.HighPriceSigmas*stats.StdevPrice {
			score += w.HighPrice
			indicators = append(indicators, indicatorHighPrice)
		}
	}

	if req.AgeMonths > w.OldAgeMonths {
		score += w.OldAge
		indicators = append(indicators, indicatorOldAge)
	}

	if slices.Contains(w.PremiumBrands, req.Brand) && req.AskingPrice < w.PremiumPriceFloor {
		score += w.PremiumLowPrice
		indicators = append(indicators, indicatorPremiumCheap)
	}

	if req.Condition == string(listing.ConditionLikeNew) && req.AgeMonths > w.LikeNewMaxAge {
		score += w.LikeNewAged
		indicators = append(indicators, indicatorLikeNewAged)
	}

	if math.IsNaN(score) {
		return cleanFraudAnalysis()
	}

	return FraudAnalysis{
		FraudScore:      clamp01(score),
		FraudIndicators: indicators,
		RiskLevel:       riskLevel(score, w),
	}
}

// riskLevel buckets the unclamped score
func riskLevel(score float64, w FraudWeights) RiskLevel {
	switch {
	case score > w.HighRisk:
		return RiskHigh
	case score > w.MediumRisk:
		return RiskMedium
	default:
		return RiskLow
	}
}

func cleanFraudAnalysis() FraudAnalysis {
	return FraudAnalysis{FraudScore: 0, FraudIndicators: []string{}, RiskLevel: RiskLow}
}

// confidenceScore rates how well the suggestion is supported by local data
func (p *pipeline) confidenceScore(req Request, market MarketAnalysis) float64 {
	w := p.tables.Confidence
	confidence := w.Base

	switch n := len(market.SimilarItems); {
	case n > w.ManyThreshold:
		confidence += w.ManyComparables
	case n > w.SomeThreshold:
		confidence += w.SomeComparables
	case n > 0:
		confidence += w.FewComparables
	}

	if p.tables.KnownBrand(req.Brand) {
		confidence += w.KnownBrand
	}

	if req.AgeMonths >= 0 && req.AgeMonths <= w.MaxReasonableAge {
		confidence += w.ReasonableAge
	}

	if complete(req) {
		confidence += w.Complete
	}

	return clamp01(confidence)
}

// complete reports whether every field carries a non-zero value
func complete(req Request) bool {
	return req.Title != "" && req.Category != "" && req.Brand != "" && req.Condition != "" &&
		req.AgeMonths != 0 && req.AskingPrice != 0 && req.Location != ""
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
