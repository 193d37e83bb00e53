package pricing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/domain/listing"
	"marketplace/internal/repository/memory"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

func newTestPipeline(repo listing.Repository) *pipeline {
	return &pipeline{
		repo:   repo,
		tables: DefaultTables(),
		log:    logger.Nop(),
	}
}

func TestDetectFraud_AllIndicators(t *testing.T) {
	p := newTestPipeline(memory.NewListingRepositoryFrom(memory.FallbackListings()))

	req := Request{
		Title: "Cheap phone", Category: "Mobile", Brand: "Apple", Condition: "Like New",
		AgeMonths: 130, AskingPrice: 3000, Location: "Delhi",
	}

	fraud := p.detectFraud(context.Background(), req)

	assert.Equal(t, 1.0, fraud.FraudScore)
	assert.Equal(t, RiskHigh, fraud.RiskLevel)
	assert.Equal(t, []string{
		indicatorLowPrice,
		indicatorOldAge,
		indicatorPremiumCheap,
		indicatorLikeNewAged,
	}, fraud.FraudIndicators)
}

func TestDetectFraud_ScoreIsMonotonic(t *testing.T) {
	p := newTestPipeline(memory.NewListingRepositoryFrom(memory.FallbackListings()))

	base := Request{
		Title: "Lens", Category: "Camera", Brand: "Canon", Condition: "Good",
		AgeMonths: 12, AskingPrice: 20000, Location: "Pune",
	}

	steps := []func(*Request){
		func(r *Request) {},
		func(r *Request) { r.AgeMonths = 121 },
		func(r *Request) { r.Condition = "Like New" },
		func(r *Request) { r.Brand = "Samsung"; r.AskingPrice = 4000 },
	}

	req := base
	previous := -1.0
	for i, step := range steps {
		step(&req)
		fraud := p.detectFraud(context.Background(), req)

		assert.GreaterOrEqual(t, fraud.FraudScore, previous, "step %d", i)
		assert.GreaterOrEqual(t, fraud.FraudScore, 0.0)
		assert.LessOrEqual(t, fraud.FraudScore, 1.0)
		previous = fraud.FraudScore
	}

	assert.InDelta(t, 0.7, previous, 1e-9)
}

func TestDetectFraud_RiskLevels(t *testing.T) {
	w := DefaultTables().Fraud

	assert.Equal(t, RiskLow, riskLevel(0.3, w))
	assert.Equal(t, RiskMedium, riskLevel(0.31, w))
	assert.Equal(t, RiskMedium, riskLevel(0.6, w))
	assert.Equal(t, RiskHigh, riskLevel(0.61, w))
}

func TestDetectFraud_SingleListingSkipsSpreadChecks(t *testing.T) {
	p := newTestPipeline(memory.NewListingRepositoryFrom(memory.FallbackListings()))

	req := Request{
		Title: "Camera", Category: "Camera", Brand: "Sony", Condition: "Good",
		AgeMonths: 6, AskingPrice: 1, Location: "Pune",
	}

	fraud := p.detectFraud(context.Background(), req)
	assert.Equal(t, cleanFraudAnalysis(), fraud)
}

func TestDetectFraud_RepositoryFailureIsAbsorbed(t *testing.T) {
	p := newTestPipeline(failingRepo{})

	fraud := p.detectFraud(context.Background(), iphoneRequest())
	assert.Equal(t, cleanFraudAnalysis(), fraud)
}

func TestConfidenceScore(t *testing.T) {
	p := newTestPipeline(nil)

	many := make([]listing.Listing, 11)
	some := make([]listing.Listing, 6)

	tests := []struct {
		name   string
		req    Request
		market MarketAnalysis
		want   float64
	}{
		{name: "many comparables caps at one", req: iphoneRequest(), market: MarketAnalysis{SimilarItems: many}, want: 1.0},
		{name: "some comparables", req: iphoneRequest(), market: MarketAnalysis{SimilarItems: some}, want: 1.0},
		{name: "no comparables", req: iphoneRequest(), want: 0.8},
		{
			name: "unknown brand and zero age",
			req:  Request{Title: "t", Category: "c", Brand: "Acme", Condition: "Good", AgeMonths: 0, AskingPrice: 10, Location: "l"},
			want: 0.6,
		},
		{
			name: "old item",
			req:  Request{Title: "t", Category: "c", Brand: "Acme", Condition: "Good", AgeMonths: 61, AskingPrice: 10, Location: "l"},
			want: 0.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, p.confidenceScore(tt.req, tt.market), 1e-9)
		})
	}
}

func TestLoadTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
depreciation:
  Mobile: 0.1
brands:
  OnePlus: 1.08
fraud:
  premium_brands: [Apple, Samsung, OnePlus]
`), 0o600))

	tables, err := LoadTables(path)
	require.NoError(t, err)

	assert.Equal(t, 0.1, tables.DepreciationRate("Mobile"))
	assert.Equal(t, 0.04, tables.DepreciationRate("Laptop"))
	assert.Equal(t, 0.03, tables.DepreciationRate("Books"))
	assert.Equal(t, 1.08, tables.BrandMultiplier("OnePlus"))
	assert.Equal(t, 1.2, tables.BrandMultiplier("Apple"))
	assert.True(t, tables.KnownBrand("OnePlus"))
	assert.Equal(t, []string{"Apple", "Samsung", "OnePlus"}, tables.Fraud.PremiumBrands)
	assert.Equal(t, 0.3, tables.Fraud.LowPrice)
}

func TestLoadTables_Errors(t *testing.T) {
	_, err := LoadTables(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("locations:\n  Mumbai: -1\n"), 0o600))

	_, err = LoadTables(path)
	var verr *errors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "locations.Mumbai", verr.Field)
}

func TestLoadTables_EmptyPathUsesDefaults(t *testing.T) {
	tables, err := LoadTables("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTables(), tables)
}
