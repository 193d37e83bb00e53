package memory

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"marketplace/internal/domain/listing"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

// Compile-time check
var _ listing.Repository = (*ListingRepository)(nil)

var criticalColumns = []string{"title", "category", "brand", "condition", "age_months", "asking_price"}

// ListingRepository serves listings from a CSV file loaded once on first use.
// A missing or unreadable file falls back to a small built-in dataset.
type ListingRepository struct {
	path string

	once     sync.Once
	listings []listing.Listing
	source   string

	log *logger.Logger
}

// NewListingRepository creates a repository reading path lazily
func NewListingRepository(path string) *ListingRepository {
	return &ListingRepository{
		path: path,
		log:  logger.Get().With("component", "listing_repository", "source", "csv"),
	}
}

// NewListingRepositoryFrom serves a fixed set of listings
func NewListingRepositoryFrom(listings []listing.Listing) *ListingRepository {
	r := &ListingRepository{log: logger.Get().With("component", "listing_repository", "source", "static")}
	r.once.Do(func() {
		r.listings = listings
		r.source = "static"
	})
	return r
}

// Load forces the first load; safe to call from several goroutines
func (r *ListingRepository) Load() {
	r.once.Do(r.load)
}

// Source reports where listings came from: the CSV path, "fallback" or "static"
func (r *ListingRepository) Source() string {
	r.Load()
	return r.source
}

func (r *ListingRepository) load() {
	listings, err := readCSV(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.log.Warnw("Data file not found, using fallback data", "path", r.path)
		} else {
			r.log.Errorw("Error loading data, using fallback data", "path", r.path, "error", err)
		}
		r.listings = FallbackListings()
		r.source = "fallback"
		return
	}

	r.listings = listings
	r.source = r.path
	r.log.Infow("Loaded marketplace data", "records", len(listings), "path", r.path)
}

func (r *ListingRepository) all() []listing.Listing {
	r.Load()
	return r.listings
}

func (r *ListingRepository) SimilarItems(_ context.Context, category, brand string, ageMonths, toleranceMonths float64) ([]listing.Listing, error) {
	return listing.FilterSimilar(r.all(), category, brand, ageMonths, toleranceMonths), nil
}

func (r *ListingRepository) ListByCategory(_ context.Context, category string) ([]listing.Listing, error) {
	var out []listing.Listing
	for _, l := range r.all() {
		if l.Category == category {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *ListingRepository) CategoryStats(ctx context.Context, category string) (listing.CategoryStats, error) {
	items, _ := r.ListByCategory(ctx, category)
	return listing.ComputeCategoryStats(category, items), nil
}

func (r *ListingRepository) PriceTrend(_ context.Context, category, brand string) (listing.PriceTrend, error) {
	return listing.ComputePriceTrend(category, brand, listing.FilterSimilar(r.all(), category, brand, 0, 0)), nil
}

func (r *ListingRepository) Count(_ context.Context) (int, error) {
	return len(r.all()), nil
}

func readCSV(path string) ([]listing.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseCSV(f)
}

// ParseCSV reads listings with a header row. Rows missing a critical field, with a
// non-numeric or negative age, or with a non-positive price are dropped.
func ParseCSV(src io.Reader) ([]listing.Listing, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range criticalColumns {
		if _, ok := cols[name]; !ok {
			return nil, errors.NewValidationError("csv", "missing column", name)
		}
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var listings []listing.Listing
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read csv line %d", line)
		}

		l, ok := parseRecord(func(name string) string { return field(record, name) })
		if !ok {
			continue
		}
		if l.ID == 0 {
			l.ID = int64(len(listings) + 1)
		}
		listings = append(listings, l)
	}

	return listings, nil
}

func parseRecord(field func(string) string) (listing.Listing, bool) {
	for _, name := range criticalColumns {
		if field(name) == "" {
			return listing.Listing{}, false
		}
	}

	age, err := strconv.ParseFloat(field("age_months"), 64)
	if err != nil || age < 0 {
		return listing.Listing{}, false
	}
	price, err := strconv.ParseFloat(field("asking_price"), 64)
	if err != nil || price <= 0 {
		return listing.Listing{}, false
	}
	id, _ := strconv.ParseInt(field("id"), 10, 64)

	return listing.Listing{
		ID:          id,
		Title:       field("title"),
		Category:    field("category"),
		Brand:       field("brand"),
		Condition:   field("condition"),
		AgeMonths:   age,
		AskingPrice: price,
		Location:    field("location"),
	}, true
}

// FallbackListings is the built-in dataset used when no CSV is available
func FallbackListings() []listing.Listing {
	return []listing.Listing{
		{ID: 1, Title: "iPhone 12", Category: "Mobile", Brand: "Apple", Condition: "Good", AgeMonths: 24, AskingPrice: 35000, Location: "Mumbai"},
		{ID: 2, Title: "Samsung Galaxy S21", Category: "Mobile", Brand: "Samsung", Condition: "Like New", AgeMonths: 12, AskingPrice: 40000, Location: "Delhi"},
		{ID: 3, Title: "MacBook Air", Category: "Laptop", Brand: "Apple", Condition: "Good", AgeMonths: 18, AskingPrice: 65000, Location: "Bangalore"},
		{ID: 4, Title: "Dell Inspiron", Category: "Laptop", Brand: "Dell", Condition: "Fair", AgeMonths: 36, AskingPrice: 25000, Location: "Chennai"},
		{ID: 5, Title: "Sony Camera", Category: "Camera", Brand: "Sony", Condition: "Like New", AgeMonths: 6, AskingPrice: 45000, Location: "Pune"},
	}
}
