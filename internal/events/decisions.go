package events

import (
	"marketplace/internal/agents"
	"marketplace/internal/agents/moderation"
	"marketplace/internal/agents/pricing"
)

// PriceSuggestedEvent records a price suggestion and the tier that produced it
type PriceSuggestedEvent struct {
	BaseEvent
	ExecutionID    int64                  `json:"execution_id"`
	AgentType      string                 `json:"agent_type"`
	Tier           pricing.Tier           `json:"tier"`
	Category       string                 `json:"category"`
	Brand          string                 `json:"brand"`
	AskingPrice    float64                `json:"asking_price"`
	Range          pricing.PriceRange     `json:"suggested_price_range"`
	MarketPosition pricing.MarketPosition `json:"market_position"`
	Confidence     float64                `json:"confidence"`
	FraudScore     float64                `json:"fraud_score"`
	RiskLevel      pricing.RiskLevel      `json:"risk_level,omitempty"`
	ProcessingTime float64                `json:"processing_time_seconds"`
}

// NewPriceSuggestedEvent builds the event for a completed suggestion
func NewPriceSuggestedEvent(req pricing.Request, result pricing.Result) *PriceSuggestedEvent {
	event := &PriceSuggestedEvent{
		BaseEvent:      NewBaseEvent(TypePriceSuggested, result.Metadata.TraceID),
		ExecutionID:    result.Metadata.ExecutionID,
		AgentType:      result.Metadata.AgentType,
		Tier:           result.Tier,
		Category:       req.Category,
		Brand:          req.Brand,
		AskingPrice:    req.AskingPrice,
		Range:          result.SuggestedPriceRange,
		MarketPosition: result.MarketPosition,
		Confidence:     result.Confidence,
		ProcessingTime: result.Metadata.ProcessingTime,
	}
	if result.FraudAnalysis != nil {
		event.FraudScore = result.FraudAnalysis.FraudScore
		event.RiskLevel = result.FraudAnalysis.RiskLevel
	}
	return event
}

// MessageModeratedEvent records a moderation verdict. The message text is not included.
type MessageModeratedEvent struct {
	BaseEvent
	ExecutionID       int64                  `json:"execution_id"`
	Status            moderation.Status      `json:"status"`
	Severity          moderation.Severity    `json:"severity"`
	ActionRecommended moderation.Action      `json:"action_recommended"`
	Confidence        float64                `json:"confidence"`
	PreAnalysis       moderation.PreAnalysis `json:"pre_analysis"`
	ProcessingTime    float64                `json:"processing_time_seconds"`
}

// NewMessageModeratedEvent builds the event for a verdict
func NewMessageModeratedEvent(result *moderation.Result) *MessageModeratedEvent {
	return &MessageModeratedEvent{
		BaseEvent:         NewBaseEvent(TypeMessageModerated, result.Metadata.TraceID),
		ExecutionID:       result.Metadata.ExecutionID,
		Status:            result.Status,
		Severity:          result.Severity,
		ActionRecommended: result.ActionRecommended,
		Confidence:        result.Confidence,
		PreAnalysis:       result.PreAnalysis,
		ProcessingTime:    result.Metadata.ProcessingTime,
	}
}

// ModerationFailedEvent records a message that could not be moderated and is held for review
type ModerationFailedEvent struct {
	BaseEvent
	AgentType   string                 `json:"agent_type"`
	Error       string                 `json:"error"`
	PreAnalysis moderation.PreAnalysis `json:"pre_analysis"`
}

// NewModerationFailedEvent builds the event for a failed moderation
func NewModerationFailedEvent(traceID string, req moderation.Request, err error) *ModerationFailedEvent {
	return &ModerationFailedEvent{
		BaseEvent:   NewBaseEvent(TypeModerationFailed, traceID),
		AgentType:   agents.AgentChatModerator.String(),
		Error:       SanitizeUTF8(err.Error()),
		PreAnalysis: moderation.Analyze(req.Message),
	}
}
