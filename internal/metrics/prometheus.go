package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Agent metrics
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_agent_calls_total",
			Help: "Total number of agent executions",
		},
		[]string{"agent", "status"}, // status: success|validation_error|generation_error|parse_error|error
	)

	AgentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_agent_latency_seconds",
			Help:    "Agent execution latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"agent"},
	)

	// Generation gateway metrics
	GenerationAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_generation_attempts_total",
			Help: "Total number of text generation attempts",
		},
		[]string{"provider", "status"}, // status: success|error|empty
	)

	GenerationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_generation_latency_seconds",
			Help:    "Text generation latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	GenerationCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_generation_cache_total",
			Help: "Generation cache lookups",
		},
		[]string{"result"}, // result: hit|miss|error
	)

	// Pricing metrics
	PricingTiers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_pricing_tier_total",
			Help: "Price suggestions by the tier that produced them",
		},
		[]string{"tier"}, // tier: llm|fallback|emergency
	)

	FraudRisk = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_pricing_fraud_risk_total",
			Help: "Price suggestions by fraud risk level",
		},
		[]string{"risk_level"},
	)

	// Moderation metrics
	ModerationVerdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_moderation_verdicts_total",
			Help: "Moderation verdicts by status and recommended action",
		},
		[]string{"status", "action"},
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_kafka_messages_total",
			Help: "Total Kafka messages published",
		},
		[]string{"topic", "status"}, // status: success|error
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

var initOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(AgentCalls)
		prometheus.MustRegister(AgentLatency)

		prometheus.MustRegister(GenerationAttempts)
		prometheus.MustRegister(GenerationLatency)
		prometheus.MustRegister(GenerationCache)

		prometheus.MustRegister(PricingTiers)
		prometheus.MustRegister(FraudRisk)
		prometheus.MustRegister(ModerationVerdicts)

		prometheus.MustRegister(KafkaMessages)
		prometheus.MustRegister(HTTPRequests)
		prometheus.MustRegister(HTTPDuration)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAgentCall records an agent execution with its outcome label
func RecordAgentCall(agent, status string, latency time.Duration) {
	AgentCalls.WithLabelValues(agent, status).Inc()
	AgentLatency.WithLabelValues(agent).Observe(latency.Seconds())
}

// RecordGeneration records a single gateway attempt
func RecordGeneration(provider string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	GenerationAttempts.WithLabelValues(provider, status).Inc()
	GenerationLatency.WithLabelValues(provider).Observe(latency.Seconds())
}

// RecordCacheLookup records a generation cache hit, miss or error
func RecordCacheLookup(result string) {
	GenerationCache.WithLabelValues(result).Inc()
}

// RecordPricing records the tier and fraud risk of a price suggestion
func RecordPricing(tier, riskLevel string) {
	PricingTiers.WithLabelValues(tier).Inc()
	if riskLevel != "" {
		FraudRisk.WithLabelValues(riskLevel).Inc()
	}
}

// RecordModeration records a moderation verdict
func RecordModeration(status, action string) {
	ModerationVerdicts.WithLabelValues(status, action).Inc()
}

// RecordKafkaPublish records a published event
func RecordKafkaPublish(topic string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	KafkaMessages.WithLabelValues(topic, status).Inc()
}

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(route string, code int, duration time.Duration) {
	HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}
