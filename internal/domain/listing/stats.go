package listing

import (
	"math"
	"sort"
)

// ComputeCategoryStats aggregates listings that all belong to category
func ComputeCategoryStats(category string, listings []Listing) CategoryStats {
	stats := CategoryStats{Category: category, Count: len(listings)}
	if len(listings) == 0 {
		return stats
	}

	prices := make([]float64, len(listings))
	var sumPrice, sumAge float64
	stats.MinPrice = math.Inf(1)
	stats.MaxPrice = math.Inf(-1)

	for i, l := range listings {
		prices[i] = l.AskingPrice
		sumPrice += l.AskingPrice
		sumAge += l.AgeMonths
		stats.MinPrice = math.Min(stats.MinPrice, l.AskingPrice)
		stats.MaxPrice = math.Max(stats.MaxPrice, l.AskingPrice)
	}

	n := float64(len(listings))
	stats.AvgPrice = sumPrice / n
	stats.AvgAgeMonths = sumAge / n
	stats.MedianPrice = median(prices)

	if len(listings) >= 2 {
		var ss float64
		for _, p := range prices {
			d := p - stats.AvgPrice
			ss += d * d
		}
		stats.StdevPrice = math.Sqrt(ss / (n - 1))
	}

	return stats
}

// ComputePriceTrend classifies the Pearson correlation between age and price:
// below -0.3 declining, above 0.3 stable, otherwise variable.
func ComputePriceTrend(category, brand string, listings []Listing) PriceTrend {
	trend := PriceTrend{Category: category, Brand: brand, SampleSize: len(listings)}
	if len(listings) == 0 {
		trend.Trend = TrendInsufficientData
		return trend
	}

	corr, ok := pearson(listings)
	if !ok {
		trend.Trend = TrendVariable
		return trend
	}

	trend.Correlation = corr
	switch {
	case corr < -0.3:
		trend.Trend = TrendDeclining
	case corr > 0.3:
		trend.Trend = TrendStable
	default:
		trend.Trend = TrendVariable
	}
	return trend
}

// FilterSimilar applies the similar-items rule to listings of any category and brand
func FilterSimilar(listings []Listing, category, brand string, ageMonths, toleranceMonths float64) []Listing {
	var brandMatches []Listing
	for _, l := range listings {
		if l.Category == category && l.Brand == brand {
			brandMatches = append(brandMatches, l)
		}
	}
	if len(brandMatches) == 0 || toleranceMonths <= 0 {
		return brandMatches
	}

	var aged []Listing
	for _, l := range brandMatches {
		if math.Abs(l.AgeMonths-ageMonths) <= toleranceMonths {
			aged = append(aged, l)
		}
	}
	if len(aged) == 0 {
		return brandMatches
	}
	return aged
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// pearson returns false when the correlation is undefined (fewer than two points or zero variance)
func pearson(listings []Listing) (float64, bool) {
	if len(listings) < 2 {
		return 0, false
	}

	n := float64(len(listings))
	var meanX, meanY float64
	for _, l := range listings {
		meanX += l.AgeMonths
		meanY += l.AskingPrice
	}
	meanX /= n
	meanY /= n

	var cov, varX, varY float64
	for _, l := range listings {
		dx := l.AgeMonths - meanX
		dy := l.AskingPrice - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}

	return cov / math.Sqrt(varX*varY), true
}
