package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"marketplace/pkg/errors"
)

// RateLimitedGenerator throttles outbound calls with a token bucket shared by all agents
type RateLimitedGenerator struct {
	next    Generator
	limiter *rate.Limiter
	perMin  int
}

// NewRateLimitedGenerator wraps next with a limit of requestsPerMinute and the given burst.
// A non-positive rate returns next unchanged.
func NewRateLimitedGenerator(next Generator, requestsPerMinute, burst int) Generator {
	if requestsPerMinute <= 0 {
		return next
	}
	if burst < 1 {
		burst = requestsPerMinute / 10
		if burst < 1 {
			burst = 1
		}
	}

	return &RateLimitedGenerator{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst),
		perMin:  requestsPerMinute,
	}
}

func (g *RateLimitedGenerator) Name() string { return g.next.Name() }

// Generate waits for a token, then delegates
func (g *RateLimitedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", errors.NewGenerationError(g.Name(), &RateLimitError{
			Provider: g.Name(),
			Limit:    g.perMin,
			Err:      err,
		})
	}
	return g.next.Generate(ctx, prompt)
}

// RateLimitError reports a call refused by the local limiter
type RateLimitError struct {
	Provider string
	Limit    int
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit for %s (%d req/min): %v", e.Provider, e.Limit, e.Err)
}

// Unwrap exposes ErrRateLimitExceeded and the limiter's cause
func (e *RateLimitError) Unwrap() []error {
	return []error{errors.ErrRateLimitExceeded, e.Err}
}
