package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/domain/listing"
	"marketplace/internal/repository/postgres"
	"marketplace/internal/testsupport"
)

func fixtures() []listing.Listing {
	return []listing.Listing{
		{ID: 101, Title: "iPhone 12", Category: "Mobile", Brand: "Apple", Condition: "Good", AgeMonths: 24, AskingPrice: 35000, Location: "Mumbai"},
		{ID: 102, Title: "iPhone 13", Category: "Mobile", Brand: "Apple", Condition: "Like New", AgeMonths: 10, AskingPrice: 52000, Location: "Delhi"},
		{ID: 103, Title: "iPhone 8", Category: "Mobile", Brand: "Apple", Condition: "Fair", AgeMonths: 60, AskingPrice: 9000, Location: "Pune"},
		{ID: 104, Title: "Galaxy S21", Category: "Mobile", Brand: "Samsung", Condition: "Good", AgeMonths: 14, AskingPrice: 38000, Location: "Chennai"},
		{ID: 105, Title: "MacBook Air", Category: "Laptop", Brand: "Apple", Condition: "Good", AgeMonths: 18, AskingPrice: 65000, Location: "Bangalore"},
	}
}

func TestListingRepository_SQLite(t *testing.T) {
	client := testsupport.NewSQLiteListings(t, fixtures())
	runRepositoryChecks(t, postgres.NewListingRepository(client.DB()))
}

func TestListingRepository_Postgres(t *testing.T) {
	client := testsupport.NewPostgresListings(t, fixtures())
	runRepositoryChecks(t, postgres.NewListingRepository(client.DB()))
}

func runRepositoryChecks(t *testing.T, repo *postgres.ListingRepository) {
	t.Helper()
	ctx := context.Background()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 5)

	similar, err := repo.SimilarItems(ctx, "Mobile", "Apple", 20, listing.DefaultAgeTolerance)
	require.NoError(t, err)
	require.Len(t, similar, 2)
	assert.Equal(t, "iPhone 12", similar[0].Title)
	assert.Equal(t, "iPhone 13", similar[1].Title)

	mobiles, err := repo.ListByCategory(ctx, "Mobile")
	require.NoError(t, err)
	assert.Len(t, mobiles, 4)

	stats, err := repo.CategoryStats(ctx, "Mobile")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Count)
	assert.InDelta(t, 33500, stats.AvgPrice, 1e-9)
	assert.Equal(t, 9000.0, stats.MinPrice)
	assert.Equal(t, 52000.0, stats.MaxPrice)
	assert.InDelta(t, 36500, stats.MedianPrice, 1e-9)

	none, err := repo.CategoryStats(ctx, "Fashion")
	require.NoError(t, err)
	assert.Equal(t, 0, none.Count)

	trend, err := repo.PriceTrend(ctx, "Mobile", "Apple")
	require.NoError(t, err)
	assert.Equal(t, listing.TrendDeclining, trend.Trend)
	assert.Equal(t, 3, trend.SampleSize)
}

func TestListingRepository_UpsertReplaces(t *testing.T) {
	client := testsupport.NewSQLiteListings(t, fixtures())
	repo := postgres.NewListingRepository(client.DB())
	ctx := context.Background()

	updated := fixtures()[0]
	updated.AskingPrice = 30000
	require.NoError(t, repo.Upsert(ctx, []listing.Listing{updated}))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	items, err := repo.SimilarItems(ctx, "Mobile", "Apple", 24, 0)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	assert.Equal(t, 30000.0, items[0].AskingPrice)
}
