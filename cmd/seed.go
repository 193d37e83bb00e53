package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"marketplace/internal/adapters/config"
	pgclient "marketplace/internal/adapters/postgres"
	"marketplace/internal/domain/listing"
	"marketplace/internal/repository/memory"
	pgrepo "marketplace/internal/repository/postgres"
	"marketplace/pkg/logger"
)

var (
	seedCSV    string
	seedDryRun bool
)

// seedCmd loads the marketplace CSV into the configured SQL store
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load listings from CSV into postgres or sqlite",
	Long: `Parses a marketplace CSV and upserts its listings into the store selected by
MARKET_DATA_SOURCE (postgres or sqlite). The schema is created when missing.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedCSV, "csv", "", "CSV file to load (default MARKET_DATA_CSV)")
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "Parse and validate the CSV without writing")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.Get()

	path := seedCSV
	if path == "" {
		path = cfg.MarketData.CSVPath
	}

	listings, err := readListings(path)
	if err != nil {
		return err
	}

	log.Infow("Parsed listings", "path", path, "count", len(listings), "target", cfg.MarketData.Source)

	if seedDryRun {
		log.Info("✅ Dry-run mode: listings validated")
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := pgrepo.EnsureSchema(ctx, client.DB()); err != nil {
		return err
	}

	repo := pgrepo.NewListingRepository(client.DB())
	if err := repo.Upsert(ctx, listings); err != nil {
		return err
	}

	total, err := repo.Count(ctx)
	if err != nil {
		return err
	}

	log.Infow("✅ Seeding complete", "inserted", len(listings), "total", total)
	return nil
}

func readListings(path string) ([]listing.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	listings, err := memory.ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return listings, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*pgclient.Client, error) {
	switch cfg.MarketData.Source {
	case "postgres":
		return pgclient.NewClient(ctx, cfg.Postgres)
	case "sqlite":
		return pgclient.NewSQLiteClient(ctx, cfg.MarketData.SQLitePath)
	default:
		return nil, fmt.Errorf("MARKET_DATA_SOURCE=%s has no SQL store to seed; use postgres or sqlite", cfg.MarketData.Source)
	}
}
