package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain/listing"
	"marketplace/pkg/errors"
)

// Compile-time check
var _ listing.Repository = (*ListingRepository)(nil)

// ListingRepository implements listing.Repository over a listings table.
// Queries are written with ? placeholders and rebound for the connection's driver,
// so the same code serves PostgreSQL and SQLite. Aggregates are computed in Go
// because SQLite has no standard deviation or median.
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

const listingColumns = `id, title, category, brand, condition, age_months, asking_price, location`

func (r *ListingRepository) SimilarItems(ctx context.Context, category, brand string, ageMonths, toleranceMonths float64) ([]listing.Listing, error) {
	items, err := r.selectListings(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE category = ? AND brand = ? ORDER BY id`,
		category, brand,
	)
	if err != nil {
		return nil, errors.Wrap(err, "select similar listings")
	}
	return listing.FilterSimilar(items, category, brand, ageMonths, toleranceMonths), nil
}

func (r *ListingRepository) ListByCategory(ctx context.Context, category string) ([]listing.Listing, error) {
	items, err := r.selectListings(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE category = ? ORDER BY id`,
		category,
	)
	if err != nil {
		return nil, errors.Wrap(err, "select category listings")
	}
	return items, nil
}

func (r *ListingRepository) CategoryStats(ctx context.Context, category string) (listing.CategoryStats, error) {
	items, err := r.ListByCategory(ctx, category)
	if err != nil {
		return listing.CategoryStats{Category: category}, err
	}
	return listing.ComputeCategoryStats(category, items), nil
}

func (r *ListingRepository) PriceTrend(ctx context.Context, category, brand string) (listing.PriceTrend, error) {
	items, err := r.selectListings(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE category = ? AND brand = ? ORDER BY id`,
		category, brand,
	)
	if err != nil {
		return listing.PriceTrend{Category: category, Brand: brand, Trend: listing.TrendInsufficientData},
			errors.Wrap(err, "select trend listings")
	}
	return listing.ComputePriceTrend(category, brand, items), nil
}

func (r *ListingRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM listings`); err != nil {
		return 0, errors.Wrap(err, "count listings")
	}
	return n, nil
}

// Upsert inserts listings, replacing rows with the same id
func (r *ListingRepository) Upsert(ctx context.Context, listings []listing.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin listings import")
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO listings (` + listingColumns + `)
		VALUES (:id, :title, :category, :brand, :condition, :age_months, :asking_price, :location)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			category = excluded.category,
			brand = excluded.brand,
			condition = excluded.condition,
			age_months = excluded.age_months,
			asking_price = excluded.asking_price,
			location = excluded.location`

	for i := range listings {
		if _, err := tx.NamedExecContext(ctx, query, &listings[i]); err != nil {
			return errors.Wrapf(err, "upsert listing %d", listings[i].ID)
		}
	}

	return errors.Wrap(tx.Commit(), "commit listings import")
}

func (r *ListingRepository) selectListings(ctx context.Context, query string, args ...interface{}) ([]listing.Listing, error) {
	var items []listing.Listing
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return items, nil
}
