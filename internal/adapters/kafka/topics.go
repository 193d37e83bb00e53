package kafka

// Topic definitions for agent events
const (
	// TopicAgentDecisions carries one message per agent outcome (price suggestion or moderation verdict)
	TopicAgentDecisions = "agents.decisions"
)
