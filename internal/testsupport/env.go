package testsupport

import (
	"os"
	"strconv"
	"testing"

	"marketplace/internal/adapters/config"
)

// PostgresConfigFromEnv reads connection settings for integration tests.
// The test is skipped when POSTGRES_HOST is unset or in short mode.
func PostgresConfigFromEnv(t *testing.T) config.PostgresConfig {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	if os.Getenv("POSTGRES_HOST") == "" {
		t.Skip("integration environment missing, set POSTGRES_HOST to run")
	}

	return config.PostgresConfig{
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     intValue("POSTGRES_PORT", 5432),
		User:     valueWithDefault("POSTGRES_USER", "postgres"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Database: valueWithDefault("POSTGRES_DB", "marketplace_test"),
		SSLMode:  valueWithDefault("POSTGRES_SSL_MODE", "disable"),
		MaxConns: 4,
	}
}

func valueWithDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intValue(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
