package agents

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"marketplace/internal/adapters/ai"
	"marketplace/internal/metrics"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

const (
	DefaultMaxAttempts  = 2
	DefaultRetryBackoff = time.Second
)

type settings struct {
	maxAttempts int
	backoff     time.Duration
	tracker     errors.Tracker
}

// Option customizes an Executor
type Option func(*settings)

// WithRetry sets the number of generation attempts and the fixed wait between them
func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(s *settings) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if backoff >= 0 {
			s.backoff = backoff
		}
	}
}

// WithTracker records pipeline breadcrumbs on the error tracker
func WithTracker(tracker errors.Tracker) Option {
	return func(s *settings) {
		s.tracker = tracker
	}
}

// Executor runs the shared validate, prompt, generate, parse pipeline for one agent
type Executor[In, Out any] struct {
	agent     Agent[In, Out]
	generator ai.Generator
	settings  settings
	stats     statsTracker
	log       *logger.Logger
}

// NewExecutor creates an executor for agent backed by generator
func NewExecutor[In, Out any](agent Agent[In, Out], generator ai.Generator, opts ...Option) *Executor[In, Out] {
	s := settings{
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(&s)
	}

	return &Executor[In, Out]{
		agent:     agent,
		generator: generator,
		settings:  s,
		log:       logger.Get().With("component", "agent_executor", "agent", agent.Type()),
	}
}

// Type returns the agent type driven by this executor
func (e *Executor[In, Out]) Type() AgentType {
	return e.agent.Type()
}

// Statistics returns a snapshot of the executor counters
func (e *Executor[In, Out]) Statistics() Statistics {
	return e.stats.snapshot()
}

// Process runs the pipeline once. Metadata is filled on failure too, so callers
// that degrade locally can still report execution id and timing.
func (e *Executor[In, Out]) Process(ctx context.Context, in In) (Out, Metadata, error) {
	start := time.Now()
	executionID := e.stats.begin()

	traceID := logger.TraceID(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = logger.ContextWithTraceID(ctx, traceID)
	}

	meta := Metadata{
		AgentType:   e.agent.Type().String(),
		ExecutionID: executionID,
		TraceID:     traceID,
	}
	log := e.log.With("execution_id", executionID, "trace_id", traceID)

	out, err := e.run(ctx, log, in)

	elapsed := time.Since(start)
	meta.ProcessingTime = elapsed.Seconds()
	e.stats.finish(err == nil, elapsed)
	metrics.RecordAgentCall(meta.AgentType, outcome(err), elapsed)

	if err != nil {
		if errors.Is(err, errors.ErrInvalidInput) {
			log.Warnw("Agent input rejected", "error", err)
		} else {
			log.Errorw("Agent execution failed", "error", err, "duration", elapsed)
		}
		var zero Out
		return zero, meta, err
	}

	log.Infow("Agent execution completed", "duration", elapsed)
	return out, meta, nil
}

func (e *Executor[In, Out]) run(ctx context.Context, log *logger.Logger, in In) (Out, error) {
	var zero Out

	if err := e.agent.Validate(in); err != nil {
		e.breadcrumb(ctx, "validation failed", errors.LevelWarning, map[string]interface{}{"error": err.Error()})
		return zero, err
	}

	prompt, err := e.agent.BuildPrompt(ctx, in)
	if err != nil {
		return zero, errors.Wrap(err, "failed to build prompt")
	}
	log.Debugw("Prompt built", "prompt_length", len(prompt))

	raw, err := e.generateWithRetry(ctx, log, prompt)
	if err != nil {
		return zero, err
	}

	out, err := e.agent.Parse(raw)
	if err != nil {
		e.breadcrumb(ctx, "parse failed", errors.LevelWarning, map[string]interface{}{"error": err.Error()})
		return zero, err
	}

	if enricher, ok := e.agent.(Enricher[In, Out]); ok {
		out = enricher.Enrich(ctx, in, out)
	}

	return out, nil
}

// generateWithRetry calls the gateway up to maxAttempts times; blank replies count as failures
func (e *Executor[In, Out]) generateWithRetry(ctx context.Context, log *logger.Logger, prompt string) (string, error) {
	provider := e.generator.Name()
	var lastErr error

	for attempt := 1; attempt <= e.settings.maxAttempts; attempt++ {
		started := time.Now()
		reply, err := e.generator.Generate(ctx, prompt)
		if err == nil && strings.TrimSpace(reply) == "" {
			err = errors.NewGenerationError(provider, errors.ErrEmptyResponse)
		}
		metrics.RecordGeneration(provider, time.Since(started), err)

		if err == nil {
			return reply, nil
		}

		lastErr = err
		log.Warnw("Generation attempt failed",
			"provider", provider,
			"attempt", attempt,
			"max_attempts", e.settings.maxAttempts,
			"error", err,
		)
		e.breadcrumb(ctx, "generation attempt failed", errors.LevelWarning, map[string]interface{}{
			"provider": provider,
			"attempt":  attempt,
		})

		if attempt == e.settings.maxAttempts {
			break
		}

		if err := sleep(ctx, e.settings.backoff); err != nil {
			return "", errors.NewGenerationError(provider, errors.Wrap(err, "retry cancelled"))
		}
	}

	var genErr *errors.GenerationError
	if errors.As(lastErr, &genErr) {
		return "", lastErr
	}
	return "", errors.NewGenerationError(provider, lastErr)
}

func (e *Executor[In, Out]) breadcrumb(ctx context.Context, message string, level errors.Level, data map[string]interface{}) {
	if e.settings.tracker == nil {
		return
	}
	e.settings.tracker.AddBreadcrumb(ctx, message, e.agent.Type().String(), level, data)
}

// sleep waits for d unless ctx is done first
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// outcome maps an execution error to a metrics label
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, errors.ErrInvalidInput):
		return "validation_error"
	case errors.Is(err, errors.ErrGeneration):
		return "generation_error"
	case errors.Is(err, errors.ErrParse):
		return "parse_error"
	default:
		return "error"
	}
}
