package bootstrap

import (
	"context"
	"time"

	"marketplace/internal/adapters/ai"
	"marketplace/internal/adapters/config"
	errnoop "marketplace/internal/adapters/errors/noop"
	"marketplace/internal/adapters/errors/sentry"
	"marketplace/internal/adapters/kafka"
	pgclient "marketplace/internal/adapters/postgres"
	redisclient "marketplace/internal/adapters/redis"
	"marketplace/internal/agents"
	"marketplace/internal/agents/moderation"
	"marketplace/internal/agents/pricing"
	"marketplace/internal/api"
	"marketplace/internal/api/health"
	"marketplace/internal/events"
	"marketplace/internal/metrics"
	"marketplace/internal/repository/memory"
	pgrepo "marketplace/internal/repository/postgres"
	"marketplace/internal/services/marketplace"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
	"marketplace/pkg/templates"
)

const connectTimeout = 10 * time.Second

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	// Initialize error tracker
	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects the optional data stores
func (c *Container) MustInitInfrastructure() {
	var err error
	ctx, cancel := context.WithTimeout(c.Context, connectTimeout)
	defer cancel()

	switch c.Config.MarketData.Source {
	case "postgres":
		c.Log.Info("Connecting to PostgreSQL...")
		c.PG, err = pgclient.NewClient(ctx, c.Config.Postgres)
		if err != nil {
			c.Log.Fatalf("failed to connect postgres: %v", err)
		}
		c.Log.Info("✓ PostgreSQL connected")
	case "sqlite":
		c.Log.Infow("Opening SQLite market data", "path", c.Config.MarketData.SQLitePath)
		c.PG, err = pgclient.NewSQLiteClient(ctx, c.Config.MarketData.SQLitePath)
		if err != nil {
			c.Log.Fatalf("failed to open sqlite: %v", err)
		}
		c.Log.Info("✓ SQLite opened")
	}

	if c.Config.Redis.Enabled() {
		c.Log.Info("Connecting to Redis...")
		c.Redis, err = redisclient.NewClient(ctx, c.Config.Redis)
		if err != nil {
			// The cache is an optimisation; run without it
			c.Log.Warnw("Redis unavailable, generation cache disabled", "error", err)
			c.Redis = nil
		} else {
			c.Log.Info("✓ Redis connected")
		}
	}
}

// ========================================
// Phase 3: Market data
// ========================================

// MustInitRepositories selects the listing store
func (c *Container) MustInitRepositories() {
	if c.PG == nil {
		repo := memory.NewListingRepository(c.Config.MarketData.CSVPath)
		repo.Load()
		c.Listings = repo
		c.Log.Infow("✓ Market data loaded", "source", repo.Source())
		return
	}

	if err := pgrepo.EnsureSchema(c.Context, c.PG.DB()); err != nil {
		c.Log.Fatalf("failed to prepare listings schema: %v", err)
	}
	c.Listings = pgrepo.NewListingRepository(c.PG.DB())
	c.Log.Infow("✓ Market data repository initialized", "driver", c.PG.Driver())
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters initializes the generation gateway and event publishing
func (c *Container) MustInitAdapters() {
	var cache ai.Cache
	if c.Redis != nil {
		cache = c.Redis
	}

	gen, err := ai.Build(c.Context, c.Config.AI, cache)
	if err != nil {
		c.Log.Fatalf("failed to build generation gateway: %v", err)
	}
	c.Adapters.Generator = gen

	if c.Config.Kafka.Enabled() {
		c.Adapters.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
		c.Adapters.EventPublisher = events.NewPublisher(c.Adapters.KafkaProducer, c.Config.Kafka.Topic)
	} else {
		c.Log.Info("Kafka brokers not configured, decision events disabled")
	}
}

// ========================================
// Phase 5: Agents
// ========================================

// MustInitAgents builds both agents over the shared gateway
func (c *Container) MustInitAgents() {
	tables, err := pricing.LoadTables(c.Config.MarketData.PricingTablesPath)
	if err != nil {
		c.Log.Fatalf("failed to load pricing tables: %v", err)
	}

	prompts := provideTemplates(c.Config, c.Log)

	opts := []agents.Option{
		agents.WithRetry(c.Config.Agents.MaxAttempts, c.Config.Agents.RetryBackoff),
		agents.WithTracker(c.ErrorTracker),
	}

	c.Agents.Pricing = pricing.NewAgent(c.Listings, c.Adapters.Generator, pricing.Config{
		Tables:       tables,
		AgeTolerance: c.Config.Agents.AgeTolerance,
		Prompts:      prompts,
		Executor:     opts,
	})
	c.Agents.Moderation = moderation.NewAgent(c.Adapters.Generator, moderation.Config{
		Prompts:  prompts,
		Executor: opts,
	})

	c.Log.Infow("✓ Agents initialized",
		"generator", c.Adapters.Generator.Name(),
		"max_attempts", c.Config.Agents.MaxAttempts,
	)
}

// MustInitService wires the application service
func (c *Container) MustInitService() {
	var publisher marketplace.EventPublisher
	if c.Adapters.EventPublisher != nil {
		publisher = c.Adapters.EventPublisher
	}

	c.Application.Service = marketplace.NewService(c.Agents.Pricing, c.Agents.Moderation, publisher)
}

// ========================================
// Phase 6: Application Layer
// ========================================

// MustInitApplication registers metrics and builds the HTTP server
func (c *Container) MustInitApplication() {
	metrics.Init()
	collector := metrics.NewCustomCollector(c.Log, c.Listings, c.Application.Service.Snapshots)
	if err := metrics.RegisterCustomCollector(collector); err != nil {
		c.Log.Warnw("Failed to register custom metrics collector", "error", err)
	}

	deps := map[string]health.Pinger{}
	if c.PG != nil {
		deps[c.PG.Driver()] = c.PG
	}
	if c.Redis != nil {
		deps["redis"] = c.Redis
	}

	c.Application.HealthHandler = health.New(
		c.Log,
		c.Listings,
		deps,
		[]string{c.Agents.Pricing.Type().String(), c.Agents.Moderation.Type().String()},
		c.Config.App.Name,
		c.Config.App.Version,
	)

	c.Application.HTTPServer = api.NewServer(
		api.ServerConfig{
			Port:        c.Config.HTTP.Port,
			ServiceName: c.Config.App.Name,
			Version:     c.Config.App.Version,
		},
		c.Application.HealthHandler,
		api.NewHandlers(c.Application.Service, c.Config.HTTP.MaxBatchSize),
		c.Log,
	)
}

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	log.Infow("Initializing Kafka producer...", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
	})
	log.Info("✓ Kafka producer initialized")
	return producer
}

func provideTemplates(cfg *config.Config, log *logger.Logger) *templates.Registry {
	if cfg.MarketData.PromptsDir == "" {
		return templates.Get()
	}

	registry, err := templates.NewRegistry(cfg.MarketData.PromptsDir)
	if err != nil {
		log.Fatalf("failed to load prompt templates from %s: %v", cfg.MarketData.PromptsDir, err)
	}
	log.Infow("✓ Prompt templates loaded", "dir", cfg.MarketData.PromptsDir)
	return registry
}
