package pricing

import (
	"context"

	"marketplace/internal/domain/listing"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

const (
	syntheticMinFactor = 0.8
	syntheticMaxFactor = 1.2
)

// MarketAnalyzer summarizes comparable listings for a request
type MarketAnalyzer struct {
	repo         listing.Repository
	tables       Tables
	ageTolerance float64
	log          *logger.Logger
}

// NewMarketAnalyzer creates an analyzer over repo
func NewMarketAnalyzer(repo listing.Repository, tables Tables, ageTolerance float64) *MarketAnalyzer {
	if ageTolerance <= 0 {
		ageTolerance = listing.DefaultAgeTolerance
	}
	return &MarketAnalyzer{
		repo:         repo,
		tables:       tables,
		ageTolerance: ageTolerance,
		log:          logger.Get().With("component", "market_analyzer"),
	}
}

// Analyze looks up comparables with progressively looser matching: category, brand
// and age window first, then category only. With no comparables the asking price
// stands in for the average and the bounds become asking x [0.8, 1.2].
// On failure it returns the fallback snapshot together with the error.
func (a *MarketAnalyzer) Analyze(ctx context.Context, req Request) (MarketAnalysis, error) {
	items, err := a.comparables(ctx, req)
	if err != nil {
		return fallbackAnalysis(req), errors.Mark(err, errors.ErrComputation)
	}

	analysis := MarketAnalysis{
		SimilarItems:       items,
		DepreciationRate:   a.tables.DepreciationRate(req.Category) * 100,
		BrandMultiplier:    a.tables.BrandMultiplier(req.Brand),
		LocationMultiplier: a.tables.LocationMultiplier(req.Location),
	}

	if len(items) == 0 {
		analysis.AvgPrice = req.AskingPrice
		analysis.MinPrice = req.AskingPrice * syntheticMinFactor
		analysis.MaxPrice = req.AskingPrice * syntheticMaxFactor
	} else {
		analysis.AvgPrice, analysis.MinPrice, analysis.MaxPrice = priceSummary(items)
	}

	trend, err := a.repo.PriceTrend(ctx, req.Category, req.Brand)
	if err != nil {
		a.log.Warnw("Price trend unavailable", "category", req.Category, "brand", req.Brand, "error", err)
	} else {
		analysis.Trend = trend.Trend
	}

	return analysis, nil
}

func (a *MarketAnalyzer) comparables(ctx context.Context, req Request) ([]listing.Listing, error) {
	items, err := a.repo.SimilarItems(ctx, req.Category, req.Brand, req.AgeMonths, a.ageTolerance)
	if err != nil {
		return nil, errors.Wrap(err, "similar items query failed")
	}
	if len(items) > 0 {
		return items, nil
	}

	items, err = a.repo.ListByCategory(ctx, req.Category)
	if err != nil {
		return nil, errors.Wrap(err, "category query failed")
	}
	return items, nil
}

// fallbackAnalysis is used when the market data service fails
func fallbackAnalysis(req Request) MarketAnalysis {
	return MarketAnalysis{
		AvgPrice:           req.AskingPrice,
		MinPrice:           req.AskingPrice * syntheticMinFactor,
		MaxPrice:           req.AskingPrice * syntheticMaxFactor,
		DepreciationRate:   3.0,
		BrandMultiplier:    1.0,
		LocationMultiplier: 1.0,
	}
}

func priceSummary(items []listing.Listing) (avg, lo, hi float64) {
	lo, hi = items[0].AskingPrice, items[0].AskingPrice
	var sum float64
	for _, item := range items {
		sum += item.AskingPrice
		lo = min(lo, item.AskingPrice)
		hi = max(hi, item.AskingPrice)
	}
	return sum / float64(len(items)), lo, hi
}
