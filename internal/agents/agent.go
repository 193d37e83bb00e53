package agents

import "context"

// Agent is the per-variant strategy driven by Executor.
// Implementations are shared across goroutines and must keep per-call state in In.
type Agent[In, Out any] interface {
	// Type names the agent in metadata, logs and metrics
	Type() AgentType

	// Validate rejects malformed input with *errors.ValidationError naming the first bad field
	Validate(in In) error

	// BuildPrompt renders the instruction sent to the generation gateway
	BuildPrompt(ctx context.Context, in In) (string, error)

	// Parse turns a raw reply into a validated result or fails with *errors.ParseError
	Parse(raw string) (Out, error)
}

// Enricher is implemented by agents that post-process a parsed result with local analysis.
// Enrich must not fail; local analysis errors are absorbed by the agent.
type Enricher[In, Out any] interface {
	Enrich(ctx context.Context, in In, out Out) Out
}
