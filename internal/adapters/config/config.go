package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"marketplace/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	AI            AIConfig
	Agents        AgentsConfig
	MarketData    MarketDataConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"marketplace-agents"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
}

type HTTPConfig struct {
	Port            int           `envconfig:"HTTP_PORT" default:"5000"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxBatchSize    int           `envconfig:"HTTP_MAX_BATCH_SIZE" default:"50"`
}

// AIConfig holds credentials for the text generation backends.
// The first backend with a key wins: Gemini, Groq, HuggingFace, OpenAI; none selects the offline mock.
type AIConfig struct {
	GoogleKey      string `envconfig:"GOOGLE_API_KEY"`
	GeminiKey      string `envconfig:"GEMINI_API_KEY"`
	GroqKey        string `envconfig:"GROQ_API_KEY"`
	HuggingFaceKey string `envconfig:"HUGGINGFACE_API_KEY"`
	OpenAIKey      string `envconfig:"OPENAI_API_KEY"`

	// Provider forces a backend by name (gemini, groq, huggingface, openai, mock)
	Provider string `envconfig:"AI_PROVIDER"`

	GeminiModel      string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	GroqModel        string `envconfig:"GROQ_MODEL" default:"mixtral-8x7b-32768"`
	GroqBaseURL      string `envconfig:"GROQ_BASE_URL" default:"https://api.groq.com/openai/v1/"`
	HuggingFaceModel string `envconfig:"HUGGINGFACE_MODEL" default:"mistralai/Mistral-7B-Instruct-v0.1"`
	HuggingFaceURL   string `envconfig:"HUGGINGFACE_BASE_URL" default:"https://api-inference.huggingface.co/models/"`
	OpenAIModel      string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`

	Temperature float64       `envconfig:"AI_TEMPERATURE" default:"0.1"`
	Timeout     time.Duration `envconfig:"AI_TIMEOUT" default:"30s"`

	// RateLimitPerMinute caps outbound generation calls; 0 disables the limiter
	RateLimitPerMinute int `envconfig:"AI_RATE_LIMIT_PER_MINUTE" default:"60"`
	RateLimitBurst     int `envconfig:"AI_RATE_LIMIT_BURST" default:"5"`

	// CacheTTL applies when Redis is configured; 0 disables caching
	CacheTTL time.Duration `envconfig:"AI_CACHE_TTL" default:"10m"`
}

// GeminiAPIKey returns GOOGLE_API_KEY, falling back to GEMINI_API_KEY.
func (c AIConfig) GeminiAPIKey() string {
	if c.GoogleKey != "" {
		return c.GoogleKey
	}
	return c.GeminiKey
}

type AgentsConfig struct {
	MaxAttempts  int           `envconfig:"AGENT_MAX_ATTEMPTS" default:"2"`
	RetryBackoff time.Duration `envconfig:"AGENT_RETRY_BACKOFF" default:"1s"`
	AgeTolerance float64       `envconfig:"AGENT_AGE_TOLERANCE_MONTHS" default:"12"`
}

type MarketDataConfig struct {
	// Source selects the listing store: csv, postgres or sqlite
	Source     string `envconfig:"MARKET_DATA_SOURCE" default:"csv"`
	CSVPath    string `envconfig:"MARKET_DATA_CSV" default:"data/marketplace_data.csv"`
	SQLitePath string `envconfig:"MARKET_DATA_SQLITE" default:"data/marketplace.db"`

	// PricingTablesPath points at an optional YAML file overriding the pricing tables
	PricingTablesPath string `envconfig:"PRICING_TABLES_PATH"`

	// PromptsDir overrides the embedded prompt templates
	PromptsDir string `envconfig:"PROMPTS_DIR"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"marketplace"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig is optional; an empty host disables the generation cache.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KafkaConfig is optional; no brokers disables decision events.
type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_DECISIONS_TOPIC" default:"agents.decisions"`
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Validate rejects settings the agents cannot run with
func (c *Config) Validate() error {
	if c.Agents.MaxAttempts < 1 {
		return errors.NewValidationError("AGENT_MAX_ATTEMPTS", "must be at least 1", c.Agents.MaxAttempts)
	}
	if c.Agents.RetryBackoff < 0 {
		return errors.NewValidationError("AGENT_RETRY_BACKOFF", "must not be negative", c.Agents.RetryBackoff)
	}
	if c.Agents.AgeTolerance < 0 {
		return errors.NewValidationError("AGENT_AGE_TOLERANCE_MONTHS", "must not be negative", c.Agents.AgeTolerance)
	}
	switch c.MarketData.Source {
	case "csv", "postgres", "sqlite":
	default:
		return errors.NewValidationError("MARKET_DATA_SOURCE", "must be one of csv, postgres, sqlite", c.MarketData.Source)
	}
	if c.HTTP.MaxBatchSize < 1 {
		return errors.NewValidationError("HTTP_MAX_BATCH_SIZE", "must be at least 1", c.HTTP.MaxBatchSize)
	}
	return nil
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
