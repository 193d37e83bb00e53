package agents

// AgentType enumerates supported agent specializations.
type AgentType string

const (
	AgentPriceSuggestor AgentType = "price_suggestor"
	AgentChatModerator  AgentType = "chat_moderator"
)

// String returns the string representation of the agent type
func (t AgentType) String() string {
	return string(t)
}

// Metadata is attached to every agent result
type Metadata struct {
	ProcessingTime float64 `json:"processing_time_seconds"`
	AgentType      string  `json:"agent_type"`
	ExecutionID    int64   `json:"execution_id"`
	TraceID        string  `json:"trace_id"`
}
