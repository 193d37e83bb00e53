package bootstrap

import (
	"context"
	"sync"

	"marketplace/internal/adapters/ai"
	"marketplace/internal/adapters/config"
	"marketplace/internal/adapters/kafka"
	pgclient "marketplace/internal/adapters/postgres"
	redisclient "marketplace/internal/adapters/redis"
	"marketplace/internal/agents/moderation"
	"marketplace/internal/agents/pricing"
	"marketplace/internal/api"
	"marketplace/internal/api/health"
	"marketplace/internal/domain/listing"
	"marketplace/internal/events"
	"marketplace/internal/services/marketplace"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (optional data stores)
	PG    *pgclient.Client
	Redis *redisclient.Client

	// Market data
	Listings listing.Repository

	// External Adapters
	Adapters *Adapters

	// Agents
	Agents *Agents

	// Application Layer
	Application *Application

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Adapters groups all external adapters
type Adapters struct {
	Generator      ai.Generator
	KafkaProducer  *kafka.Producer
	EventPublisher *events.Publisher
}

// Agents groups the marketplace agents
type Agents struct {
	Pricing    *pricing.Agent
	Moderation *moderation.Agent
}

// Application groups application layer components
type Application struct {
	Service       *marketplace.Service
	HTTPServer    *api.Server
	HealthHandler *health.Handler
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Adapters:    &Adapters{},
		Agents:      &Agents{},
		Application: &Application{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in the correct order
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitCore()
	c.MustInitApplication()
}

// MustInitCore initializes everything up to the application service.
// The CLI's one-shot commands stop here.
func (c *Container) MustInitCore() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitAgents()
	c.MustInitService()
}

// Start starts the HTTP server in the background
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	if c.Application.HTTPServer == nil {
		return errors.New("http server not initialized")
	}

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.Application.HTTPServer,
		c.Adapters.EventPublisher,
		c.Adapters.KafkaProducer,
		c.PG,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}
