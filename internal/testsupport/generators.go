package testsupport

import (
	"context"
	"sync"

	"marketplace/pkg/errors"
)

// ScriptedGenerator replays replies in order; once exhausted it repeats the last entry.
// An entry with Err set fails that call.
type ScriptedGenerator struct {
	mu      sync.Mutex
	replies []Reply
	prompts []string
}

// Reply is one scripted generator outcome
type Reply struct {
	Text string
	Err  error
}

// NewScriptedGenerator creates a generator answering with replies
func NewScriptedGenerator(replies ...Reply) *ScriptedGenerator {
	return &ScriptedGenerator{replies: replies}
}

// AlwaysReply answers every prompt with text
func AlwaysReply(text string) *ScriptedGenerator {
	return NewScriptedGenerator(Reply{Text: text})
}

// AlwaysFail fails every call with a generation error
func AlwaysFail() *ScriptedGenerator {
	return NewScriptedGenerator(Reply{Err: errors.NewGenerationError("scripted", errors.ErrUnavailable)})
}

func (g *ScriptedGenerator) Name() string { return "scripted" }

func (g *ScriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	idx := len(g.prompts)
	g.prompts = append(g.prompts, prompt)

	if len(g.replies) == 0 {
		return "", errors.NewGenerationError(g.Name(), errors.ErrEmptyResponse)
	}
	if idx >= len(g.replies) {
		idx = len(g.replies) - 1
	}

	r := g.replies[idx]
	return r.Text, r.Err
}

// Calls returns how many times Generate was invoked
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// Prompts returns every prompt received so far
func (g *ScriptedGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}
