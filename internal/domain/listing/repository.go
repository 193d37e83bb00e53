package listing

import "context"

// DefaultAgeTolerance is the age window, in months, for similar items
const DefaultAgeTolerance = 12

// Repository answers comparable-listing queries. Implementations are read-only
// after loading and must tolerate an empty dataset by returning empty results.
type Repository interface {
	// SimilarItems returns listings with the same category and brand whose age is within
	// toleranceMonths of ageMonths. When the brand matches but no age fits, all brand
	// matches are returned.
	SimilarItems(ctx context.Context, category, brand string, ageMonths, toleranceMonths float64) ([]Listing, error)

	// ListByCategory returns every listing of category
	ListByCategory(ctx context.Context, category string) ([]Listing, error)

	CategoryStats(ctx context.Context, category string) (CategoryStats, error)
	PriceTrend(ctx context.Context, category, brand string) (PriceTrend, error)
	Count(ctx context.Context) (int, error)
}
