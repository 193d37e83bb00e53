package moderation

import (
	"context"
	"strings"
	"unicode/utf8"

	"marketplace/internal/adapters/ai"
	"marketplace/internal/agents"
	"marketplace/internal/metrics"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
	"marketplace/pkg/templates"
)

// Renderer renders a named prompt template
type Renderer interface {
	Render(id string, data any) (string, error)
}

// Config tunes the moderation agent
type Config struct {
	Prompts  Renderer
	Executor []agents.Option
}

// Agent classifies chat messages. Unlike pricing it has no local verdict:
// generation and parse failures reach the caller, who must hold the message.
type Agent struct {
	executor *agents.Executor[Request, Result]
	log      *logger.Logger
}

// NewAgent creates a moderation agent backed by generator
func NewAgent(generator ai.Generator, cfg Config) *Agent {
	if cfg.Prompts == nil {
		cfg.Prompts = templates.Get()
	}

	p := &pipeline{prompts: cfg.Prompts}

	return &Agent{
		executor: agents.NewExecutor[Request, Result](p, generator, cfg.Executor...),
		log:      logger.Get().With("component", "chat_moderator"),
	}
}

// Moderate classifies req.Message
func (a *Agent) Moderate(ctx context.Context, req Request) (*Result, error) {
	result, meta, err := a.executor.Process(ctx, req)
	if err != nil {
		return nil, err
	}

	result.Metadata = meta
	metrics.RecordModeration(string(result.Status), string(result.ActionRecommended))

	if result.Status != StatusSafe {
		a.log.Infow("Message flagged",
			"execution_id", meta.ExecutionID,
			"status", result.Status,
			"severity", result.Severity,
			"action", result.ActionRecommended,
		)
	}

	return &result, nil
}

// Statistics returns the agent's execution counters
func (a *Agent) Statistics() agents.Statistics {
	return a.executor.Statistics()
}

// Type returns the agent type
func (a *Agent) Type() agents.AgentType {
	return agents.AgentChatModerator
}

// ValidateRequest checks that the message is present and within length
func ValidateRequest(req Request) error {
	if strings.TrimSpace(req.Message) == "" {
		return errors.NewValidationError("message", "cannot be empty", nil)
	}
	if n := utf8.RuneCountInString(req.Message); n > MaxMessageLength {
		return errors.NewValidationError("message", "too long (max 1000 characters)", n)
	}
	return nil
}

type pipeline struct {
	prompts Renderer
}

var (
	_ agents.Agent[Request, Result]    = (*pipeline)(nil)
	_ agents.Enricher[Request, Result] = (*pipeline)(nil)
)

func (p *pipeline) Type() agents.AgentType {
	return agents.AgentChatModerator
}

func (p *pipeline) Validate(req Request) error {
	return ValidateRequest(req)
}

type promptData struct {
	Message     string
	Context     string
	PreAnalysis PreAnalysis
}

func (p *pipeline) BuildPrompt(_ context.Context, req Request) (string, error) {
	return p.prompts.Render(templates.ModerationAnalyze, promptData{
		Message:     req.Message,
		Context:     req.Context,
		PreAnalysis: Analyze(req.Message),
	})
}

func (p *pipeline) Parse(raw string) (Result, error) {
	fields, err := agents.DecodeFields(raw)
	if err != nil {
		return Result{}, err
	}

	if err := fields.Require("status", "reason", "confidence", "detected_elements", "severity", "action_recommended"); err != nil {
		return Result{}, err
	}

	status, err := fields.Enum("status",
		string(StatusSafe), string(StatusAbusive), string(StatusPhoneDetected), string(StatusPolicyViolation))
	if err != nil {
		return Result{}, err
	}

	reason, err := fields.Text("reason")
	if err != nil {
		return Result{}, err
	}

	confidence, err := fields.Probability("confidence")
	if err != nil {
		return Result{}, err
	}

	severity, err := fields.Enum("severity", string(SeverityLow), string(SeverityMedium), string(SeverityHigh))
	if err != nil {
		return Result{}, err
	}

	action, err := fields.Enum("action_recommended",
		string(ActionNone), string(ActionWarn), string(ActionBlock), string(ActionReview))
	if err != nil {
		return Result{}, err
	}

	return Result{
		Status:            Status(status),
		Reason:            reason,
		Confidence:        confidence,
		DetectedElements:  fields.StringList("detected_elements"),
		Severity:          Severity(severity),
		ActionRecommended: Action(action),
	}, nil
}

// Enrich attaches the local pre-analysis signals to the verdict
func (p *pipeline) Enrich(_ context.Context, req Request, out Result) Result {
	out.PreAnalysis = Analyze(req.Message)
	return out
}
