package pricing

import (
	"fmt"
	"math"
	"strings"

	"marketplace/pkg/errors"
	"marketplace/pkg/templates"
)

const (
	fallbackMinFactor  = 0.85
	fallbackMaxFactor  = 1.15
	fallbackConfidence = 0.6

	emergencyMinFactor  = 0.8
	emergencyMaxFactor  = 1.2
	emergencyConfidence = 0.3

	// maxRupees keeps rounded prices exactly representable
	maxRupees = 1 << 53

	emergencyReasoning      = "AI analysis temporarily unavailable. Showing basic estimate based on your asking price."
	emergencyRecommendation = "Our AI systems are being optimized. Try again in a few minutes for detailed analysis."
	fallbackNote            = "Note: This is a basic estimate. Full AI analysis temporarily unavailable."
)

// fallbackPricing estimates value in closed form:
// asking x (1 - rate)^age x condition x brand x location, widened to [0.85, 1.15].
func (p *pipeline) fallbackPricing(req Request) (Result, error) {
	for field, value := range map[string]string{
		"category":  req.Category,
		"condition": req.Condition,
		"brand":     req.Brand,
		"location":  req.Location,
	} {
		if strings.TrimSpace(value) == "" {
			return Result{}, errors.MissingField(field)
		}
	}

	rate := p.tables.DepreciationRate(req.Category)
	condition := p.tables.ConditionMultiplier(req.Condition)
	brand := p.tables.BrandMultiplier(req.Brand)
	location := p.tables.LocationMultiplier(req.Location)

	estimated := req.AskingPrice * math.Pow(1-rate, req.AgeMonths) * condition * brand * location
	if math.IsNaN(estimated) || math.IsInf(estimated, 0) || estimated < 0 {
		return Result{}, errors.Mark(errors.Newf("estimated value %v is not a price", estimated), errors.ErrComputation)
	}

	priceRange := PriceRange{
		Min: rupees(estimated * fallbackMinFactor),
		Max: rupees(estimated * fallbackMaxFactor),
	}

	reasoning := fmt.Sprintf(
		"Based on mathematical analysis: %s condition %s from %s with %s months of age. "+
			"Applied %.1f%% monthly depreciation, %.0f%% condition adjustment, and location factor for %s.",
		req.Condition, req.Category, req.Brand, templates.Number(req.AgeMonths),
		rate*100, condition*100, req.Location,
	)

	return Result{
		SuggestedPriceRange: priceRange,
		Reasoning:           reasoning,
		Confidence:          fallbackConfidence,
		MarketPosition:      positionOf(req.AskingPrice, priceRange),
		Recommendations: []string{
			fmt.Sprintf("Consider pricing between %s - %s",
				templates.Rupees(float64(priceRange.Min)), templates.Rupees(float64(priceRange.Max))),
			fallbackNote,
		},
		Tier: TierFallback,
	}, nil
}

// emergencyPricing brackets the asking price and cannot fail
func emergencyPricing(req Request) Result {
	return Result{
		SuggestedPriceRange: PriceRange{
			Min: rupees(req.AskingPrice * emergencyMinFactor),
			Max: rupees(req.AskingPrice * emergencyMaxFactor),
		},
		Reasoning:       emergencyReasoning,
		Confidence:      emergencyConfidence,
		MarketPosition:  PositionFairlyPriced,
		Recommendations: []string{emergencyRecommendation},
		Tier:            TierEmergency,
	}
}

// positionOf compares the asking price with a suggested range
func positionOf(asking float64, r PriceRange) MarketPosition {
	switch {
	case asking < float64(r.Min):
		return PositionUnderpriced
	case asking > float64(r.Max):
		return PositionOverpriced
	default:
		return PositionFairlyPriced
	}
}

// rupees rounds to a whole, non-negative amount
func rupees(v float64) int64 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= maxRupees:
		return maxRupees
	default:
		return int64(math.Round(v))
	}
}
