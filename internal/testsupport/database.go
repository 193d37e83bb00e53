package testsupport

import (
	"context"
	"testing"

	"marketplace/internal/adapters/postgres"
	"marketplace/internal/domain/listing"
	repo "marketplace/internal/repository/postgres"
)

// NewSQLiteListings opens a private in-memory SQLite database holding listings
func NewSQLiteListings(t *testing.T, listings []listing.Listing) *postgres.Client {
	t.Helper()

	ctx := context.Background()
	client, err := postgres.NewSQLiteClient(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	seedListings(t, client, listings)
	return client
}

// NewPostgresListings connects to the integration database, seeds listings and
// removes them when the test finishes
func NewPostgresListings(t *testing.T, listings []listing.Listing) *postgres.Client {
	t.Helper()

	cfg := PostgresConfigFromEnv(t)
	client, err := postgres.NewClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	seedListings(t, client, listings)
	t.Cleanup(func() {
		for _, l := range listings {
			_, _ = client.DB().ExecContext(context.Background(), client.DB().Rebind(`DELETE FROM listings WHERE id = ?`), l.ID)
		}
	})
	return client
}

func seedListings(t *testing.T, client *postgres.Client, listings []listing.Listing) {
	t.Helper()

	ctx := context.Background()
	if err := repo.EnsureSchema(ctx, client.DB()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if err := repo.NewListingRepository(client.DB()).Upsert(ctx, listings); err != nil {
		t.Fatalf("failed to seed listings: %v", err)
	}
}
