package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"marketplace/pkg/errors"
)

// listingsSchema is portable between PostgreSQL and SQLite
const listingsSchema = `
CREATE TABLE IF NOT EXISTS listings (
	id           BIGINT PRIMARY KEY,
	title        TEXT NOT NULL,
	category     TEXT NOT NULL,
	brand        TEXT NOT NULL,
	condition    TEXT NOT NULL,
	age_months   DOUBLE PRECISION NOT NULL CHECK (age_months >= 0),
	asking_price DOUBLE PRECISION NOT NULL CHECK (asking_price > 0),
	location     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_listings_category_brand ON listings (category, brand);
`

// EnsureSchema creates the listings table and index when missing
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range splitStatements(listingsSchema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "apply listings schema")
		}
	}
	return nil
}

func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
