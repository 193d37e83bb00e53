package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"marketplace/pkg/logger"
)

// ListingCounter reports the size of the market dataset
type ListingCounter interface {
	Count(ctx context.Context) (int, error)
}

// AgentSnapshot is the in-process statistics of one agent
type AgentSnapshot struct {
	Agent           string
	Executions      int64
	Successes       int64
	TotalProcessing time.Duration
}

// StatsFunc returns the current statistics of every agent
type StatsFunc func() []AgentSnapshot

// CustomCollector exposes dataset size and agent statistics at scrape time
type CustomCollector struct {
	log      *logger.Logger
	listings ListingCounter
	stats    StatsFunc

	// Descriptors
	totalListings   *prometheus.Desc
	agentExecutions *prometheus.Desc
	agentSuccesses  *prometheus.Desc
	agentProcessing *prometheus.Desc
}

// NewCustomCollector creates a new custom metrics collector. Either source may be nil.
func NewCustomCollector(log *logger.Logger, listings ListingCounter, stats StatsFunc) *CustomCollector {
	return &CustomCollector{
		log:      log,
		listings: listings,
		stats:    stats,

		totalListings: prometheus.NewDesc(
			"marketplace_listings_total",
			"Number of listings in the market dataset",
			nil, nil,
		),
		agentExecutions: prometheus.NewDesc(
			"marketplace_agent_executions",
			"Executions since process start",
			[]string{"agent"}, nil,
		),
		agentSuccesses: prometheus.NewDesc(
			"marketplace_agent_successes",
			"Successful executions since process start",
			[]string{"agent"}, nil,
		),
		agentProcessing: prometheus.NewDesc(
			"marketplace_agent_processing_seconds",
			"Accumulated processing time since process start",
			[]string{"agent"}, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *CustomCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalListings
	ch <- c.agentExecutions
	ch <- c.agentSuccesses
	ch <- c.agentProcessing
}

// Collect implements prometheus.Collector
func (c *CustomCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.collectListingCount(ctx, ch)
	c.collectAgentStats(ch)
}

func (c *CustomCollector) collectListingCount(ctx context.Context, ch chan<- prometheus.Metric) {
	if c.listings == nil {
		return
	}

	count, err := c.listings.Count(ctx)
	if err != nil {
		c.log.Warnw("Failed to collect listing count metric", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.totalListings, prometheus.GaugeValue, float64(count))
}

func (c *CustomCollector) collectAgentStats(ch chan<- prometheus.Metric) {
	if c.stats == nil {
		return
	}

	for _, s := range c.stats() {
		ch <- prometheus.MustNewConstMetric(c.agentExecutions, prometheus.CounterValue, float64(s.Executions), s.Agent)
		ch <- prometheus.MustNewConstMetric(c.agentSuccesses, prometheus.CounterValue, float64(s.Successes), s.Agent)
		ch <- prometheus.MustNewConstMetric(c.agentProcessing, prometheus.CounterValue, s.TotalProcessing.Seconds(), s.Agent)
	}
}

// RegisterCustomCollector registers the custom collector
func RegisterCustomCollector(collector *CustomCollector) error {
	return prometheus.Register(collector)
}
