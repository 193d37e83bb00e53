package events

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	TypePriceSuggested      = "pricing.suggested"
	TypeMessageModerated    = "moderation.completed"
	TypeModerationFailed    = "moderation.failed"
	eventVersion            = "1.0"
	sourceMarketplaceAgents = "marketplace-agents"
)

// BaseEvent is the envelope shared by every agent decision event
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	TraceID   string    `json:"trace_id"`
}

// NewBaseEvent creates a new base event with defaults
func NewBaseEvent(eventType, traceID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    sourceMarketplaceAgents,
		Version:   eventVersion,
		TraceID:   traceID,
	}
}

// SanitizeUTF8 drops invalid UTF-8 sequences so error text survives JSON encoding
func SanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "")
}
