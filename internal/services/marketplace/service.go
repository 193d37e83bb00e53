package marketplace

import (
	"context"
	"time"

	"marketplace/internal/agents"
	"marketplace/internal/agents/moderation"
	"marketplace/internal/agents/pricing"
	"marketplace/internal/events"
	"marketplace/internal/metrics"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

// PriceSuggester is the pricing agent as seen by the service
type PriceSuggester interface {
	Suggest(ctx context.Context, req pricing.Request) pricing.Result
	Statistics() agents.Statistics
}

// MessageModerator is the moderation agent as seen by the service
type MessageModerator interface {
	Moderate(ctx context.Context, req moderation.Request) (*moderation.Result, error)
	Statistics() agents.Statistics
}

// EventPublisher receives agent decisions
type EventPublisher interface {
	PublishPriceSuggested(ctx context.Context, event *events.PriceSuggestedEvent)
	PublishMessageModerated(ctx context.Context, event *events.MessageModeratedEvent)
	PublishModerationFailed(ctx context.Context, event *events.ModerationFailedEvent)
}

var (
	_ PriceSuggester   = (*pricing.Agent)(nil)
	_ MessageModerator = (*moderation.Agent)(nil)
	_ EventPublisher   = (*events.Publisher)(nil)
)

// Service is the application layer over both agents
type Service struct {
	pricing    PriceSuggester
	moderation MessageModerator
	events     EventPublisher
	log        *logger.Logger
}

// NewService creates the marketplace service. publisher may be nil.
func NewService(pricingAgent PriceSuggester, moderationAgent MessageModerator, publisher EventPublisher) *Service {
	return &Service{
		pricing:    pricingAgent,
		moderation: moderationAgent,
		events:     publisher,
		log:        logger.Get().With("component", "marketplace_service"),
	}
}

// SuggestPrice prices one item. It never fails.
func (s *Service) SuggestPrice(ctx context.Context, req pricing.Request) pricing.Result {
	result := s.pricing.Suggest(ctx, req)

	if s.events != nil {
		s.events.PublishPriceSuggested(ctx, events.NewPriceSuggestedEvent(req, result))
	}
	return result
}

// ModerateMessage classifies one message. Generation and parse failures are
// returned so the caller can hold the message for review.
func (s *Service) ModerateMessage(ctx context.Context, req moderation.Request) (*moderation.Result, error) {
	result, err := s.moderation.Moderate(ctx, req)
	if err != nil {
		if !errors.Is(err, errors.ErrInvalidInput) {
			s.log.Warnw("Moderation failed, message needs manual review",
				"trace_id", logger.TraceID(ctx),
				"error", err,
			)
			if s.events != nil {
				s.events.PublishModerationFailed(ctx, events.NewModerationFailedEvent(logger.TraceID(ctx), req, err))
			}
		}
		return nil, err
	}

	if s.events != nil {
		s.events.PublishMessageModerated(ctx, events.NewMessageModeratedEvent(result))
	}
	return result, nil
}

// BatchItem is the outcome for one element of a batch
type BatchItem[T any] struct {
	Index   int    `json:"index"`
	Success bool   `json:"success"`
	Result  *T     `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchResult collects batch outcomes in input order
type BatchResult[T any] struct {
	Results        []BatchItem[T] `json:"results"`
	TotalProcessed int            `json:"total_processed"`
	ProcessingTime float64        `json:"processing_time_seconds"`
}

// BatchSuggest prices items sequentially. Items with absent fields fail individually.
func (s *Service) BatchSuggest(ctx context.Context, items []PriceInput) BatchResult[pricing.Result] {
	start := time.Now()
	out := BatchResult[pricing.Result]{Results: make([]BatchItem[pricing.Result], 0, len(items))}

	for i, item := range items {
		req, err := item.Request()
		if err != nil {
			out.Results = append(out.Results, BatchItem[pricing.Result]{Index: i, Error: err.Error()})
			continue
		}

		result := s.SuggestPrice(ctx, req)
		out.Results = append(out.Results, BatchItem[pricing.Result]{Index: i, Success: true, Result: &result})
	}

	out.TotalProcessed = len(out.Results)
	out.ProcessingTime = time.Since(start).Seconds()
	s.log.Infow("Batch pricing processed", "items", out.TotalProcessed, "duration", time.Since(start))
	return out
}

// BatchModerate moderates messages sequentially. A failure affects only its own item.
func (s *Service) BatchModerate(ctx context.Context, items []ModerationInput) BatchResult[moderation.Result] {
	start := time.Now()
	out := BatchResult[moderation.Result]{Results: make([]BatchItem[moderation.Result], 0, len(items))}

	for i, item := range items {
		req, err := item.Request()
		if err == nil {
			var result *moderation.Result
			result, err = s.ModerateMessage(ctx, req)
			if err == nil {
				out.Results = append(out.Results, BatchItem[moderation.Result]{Index: i, Success: true, Result: result})
				continue
			}
		}
		out.Results = append(out.Results, BatchItem[moderation.Result]{Index: i, Error: err.Error()})
	}

	out.TotalProcessed = len(out.Results)
	out.ProcessingTime = time.Since(start).Seconds()
	s.log.Infow("Batch moderation processed", "items", out.TotalProcessed, "duration", time.Since(start))
	return out
}

// AgentStats is the public view of one agent's counters
type AgentStats struct {
	TotalExecutions   int64   `json:"total_executions"`
	SuccessRate       float64 `json:"success_rate"`
	AvgProcessingTime float64 `json:"avg_processing_time"`
}

// OverallStats aggregates both agents
type OverallStats struct {
	TotalExecutions int64   `json:"total_executions"`
	SuccessRate     float64 `json:"success_rate"`
	AvgResponseTime float64 `json:"avg_response_time"`
}

// Stats is the statistics report for both agents
type Stats struct {
	PriceSuggestor AgentStats   `json:"price_suggestor"`
	ChatModerator  AgentStats   `json:"chat_moderator"`
	Overall        OverallStats `json:"overall"`
}

// Statistics reports both agents. The overall success rate is weighted by
// executions; the response time is the plain mean of the two agents.
func (s *Service) Statistics() Stats {
	p := s.pricing.Statistics()
	m := s.moderation.Statistics()

	stats := Stats{
		PriceSuggestor: agentStats(p),
		ChatModerator:  agentStats(m),
		Overall: OverallStats{
			TotalExecutions: p.ExecutionCount + m.ExecutionCount,
			AvgResponseTime: (p.AvgProcessingTime + m.AvgProcessingTime) / 2,
		},
	}
	if total := stats.Overall.TotalExecutions; total > 0 {
		stats.Overall.SuccessRate = float64(p.SuccessCount+m.SuccessCount) / float64(total)
	}
	return stats
}

// Snapshots adapts the agent statistics for the metrics collector
func (s *Service) Snapshots() []metrics.AgentSnapshot {
	return []metrics.AgentSnapshot{
		snapshot(agents.AgentPriceSuggestor, s.pricing.Statistics()),
		snapshot(agents.AgentChatModerator, s.moderation.Statistics()),
	}
}

func agentStats(st agents.Statistics) AgentStats {
	return AgentStats{
		TotalExecutions:   st.ExecutionCount,
		SuccessRate:       st.SuccessRate,
		AvgProcessingTime: st.AvgProcessingTime,
	}
}

func snapshot(agent agents.AgentType, st agents.Statistics) metrics.AgentSnapshot {
	return metrics.AgentSnapshot{
		Agent:           agent.String(),
		Executions:      st.ExecutionCount,
		Successes:       st.SuccessCount,
		TotalProcessing: time.Duration(st.TotalProcessingTime * float64(time.Second)),
	}
}
