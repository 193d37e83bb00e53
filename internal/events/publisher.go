package events

import (
	"context"
	"sync"
	"time"

	"marketplace/internal/adapters/kafka"
	"marketplace/internal/metrics"
	"marketplace/pkg/logger"
)

// Producer is the transport the publisher writes to
type Producer interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

var _ Producer = (*kafka.Producer)(nil)

const defaultPublishTimeout = 5 * time.Second

// Publisher publishes agent decision events in the background. Delivery is
// best effort: failures are logged and counted, never returned.
type Publisher struct {
	producer Producer
	topic    string
	timeout  time.Duration
	wg       sync.WaitGroup
	log      *logger.Logger
}

// NewPublisher creates a new event publisher writing to topic
func NewPublisher(producer Producer, topic string) *Publisher {
	if topic == "" {
		topic = kafka.TopicAgentDecisions
	}
	return &Publisher{
		producer: producer,
		topic:    topic,
		timeout:  defaultPublishTimeout,
		log:      logger.Get().With("component", "event_publisher"),
	}
}

// PublishPriceSuggested publishes a price suggestion event
func (p *Publisher) PublishPriceSuggested(ctx context.Context, event *PriceSuggestedEvent) {
	p.publish(ctx, event.TraceID, event.Type, event)
}

// PublishMessageModerated publishes a moderation verdict event
func (p *Publisher) PublishMessageModerated(ctx context.Context, event *MessageModeratedEvent) {
	p.publish(ctx, event.TraceID, event.Type, event)
}

// PublishModerationFailed publishes a failed moderation event
func (p *Publisher) PublishModerationFailed(ctx context.Context, event *ModerationFailedEvent) {
	p.publish(ctx, event.TraceID, event.Type, event)
}

// Wait blocks until every event handed to the publisher has been sent or dropped
func (p *Publisher) Wait() {
	if p == nil {
		return
	}
	p.wg.Wait()
}

// publish hands the event to the producer without blocking the caller. The
// write outlives the request context but not the publish timeout.
func (p *Publisher) publish(ctx context.Context, key, eventType string, event interface{}) {
	if p == nil || p.producer == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		err := p.producer.Publish(ctx, p.topic, key, event)
		metrics.RecordKafkaPublish(p.topic, err)
		if err != nil {
			p.log.Warnw("Failed to publish event",
				"topic", p.topic,
				"type", eventType,
				"trace_id", key,
				"error", err,
			)
			return
		}

		p.log.Debugw("Event published", "topic", p.topic, "type", eventType, "trace_id", key)
	}()
}
