package agents

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"marketplace/internal/testsupport"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type answer struct {
	Text     string
	Enriched bool
}

// echoAgent asks a question and expects {"answer": "..."} back
type echoAgent struct {
	enrich bool
}

func (echoAgent) Type() AgentType { return "echo" }

func (echoAgent) Validate(q string) error {
	if strings.TrimSpace(q) == "" {
		return errors.MissingField("question")
	}
	return nil
}

func (echoAgent) BuildPrompt(_ context.Context, q string) (string, error) {
	return "Q: " + q, nil
}

func (echoAgent) Parse(raw string) (answer, error) {
	fields, err := DecodeFields(raw)
	if err != nil {
		return answer{}, err
	}
	if err := fields.Require("answer"); err != nil {
		return answer{}, err
	}
	text, err := fields.Text("answer")
	if err != nil {
		return answer{}, err
	}
	return answer{Text: text}, nil
}

type enrichingAgent struct{ echoAgent }

func (enrichingAgent) Enrich(_ context.Context, _ string, out answer) answer {
	out.Enriched = true
	return out
}

func noBackoff() Option { return WithRetry(2, 0) }

func TestExecutor_Success(t *testing.T) {
	gen := testsupport.AlwaysReply("```json\n{\"answer\": \"42\"}\n```")
	exec := NewExecutor[string, answer](echoAgent{}, gen, noBackoff())

	out, meta, err := exec.Process(context.Background(), "meaning of life")
	require.NoError(t, err)

	assert.Equal(t, answer{Text: "42"}, out)
	assert.Equal(t, "echo", meta.AgentType)
	assert.Equal(t, int64(1), meta.ExecutionID)
	assert.NotEmpty(t, meta.TraceID)
	assert.GreaterOrEqual(t, meta.ProcessingTime, 0.0)
	assert.Equal(t, []string{"Q: meaning of life"}, gen.Prompts())
}

func TestExecutor_RunsEnricher(t *testing.T) {
	exec := NewExecutor[string, answer](enrichingAgent{}, testsupport.AlwaysReply(`{"answer":"ok"}`), noBackoff())

	out, _, err := exec.Process(context.Background(), "q")
	require.NoError(t, err)
	assert.True(t, out.Enriched)
}

func TestExecutor_ValidationAbortsBeforeGeneration(t *testing.T) {
	gen := testsupport.AlwaysReply(`{"answer":"unused"}`)
	exec := NewExecutor[string, answer](echoAgent{}, gen, noBackoff())

	_, meta, err := exec.Process(context.Background(), "   ")
	require.Error(t, err)

	var verr *errors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "question", verr.Field)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.Equal(t, 0, gen.Calls())
	assert.Equal(t, int64(1), meta.ExecutionID)
}

func TestExecutor_RetriesOnceThenSucceeds(t *testing.T) {
	gen := testsupport.NewScriptedGenerator(
		testsupport.Reply{Err: errors.NewGenerationError("scripted", errors.ErrUnavailable)},
		testsupport.Reply{Text: `{"answer":"second"}`},
	)
	exec := NewExecutor[string, answer](echoAgent{}, gen, noBackoff())

	out, _, err := exec.Process(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "second", out.Text)
	assert.Equal(t, 2, gen.Calls())
}

func TestExecutor_BlankReplyIsFailure(t *testing.T) {
	gen := testsupport.AlwaysReply("  \n\t ")
	exec := NewExecutor[string, answer](echoAgent{}, gen, noBackoff())

	_, _, err := exec.Process(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrGeneration))
	assert.True(t, errors.Is(err, errors.ErrEmptyResponse))
	assert.Equal(t, 2, gen.Calls())
}

func TestExecutor_PropagatesLastGenerationFailure(t *testing.T) {
	gen := testsupport.AlwaysFail()
	exec := NewExecutor[string, answer](echoAgent{}, gen, WithRetry(3, 0))

	_, _, err := exec.Process(context.Background(), "q")
	require.Error(t, err)

	var genErr *errors.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "scripted", genErr.Provider)
	assert.Equal(t, 3, gen.Calls())
}

func TestExecutor_ParseFailureNamesField(t *testing.T) {
	exec := NewExecutor[string, answer](echoAgent{}, testsupport.AlwaysReply(`{"other": 1}`), noBackoff())

	_, _, err := exec.Process(context.Background(), "q")
	require.Error(t, err)

	var perr *errors.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "answer", perr.Field)
	assert.True(t, errors.Is(err, errors.ErrParse))
}

func TestExecutor_BackoffHonoursCancellation(t *testing.T) {
	gen := testsupport.AlwaysFail()
	exec := NewExecutor[string, answer](echoAgent{}, gen, WithRetry(2, time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, _, err := exec.Process(ctx, "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(started), time.Minute)
	assert.Equal(t, 1, gen.Calls())
}

func TestExecutor_KeepsCallerTraceID(t *testing.T) {
	exec := NewExecutor[string, answer](echoAgent{}, testsupport.AlwaysReply(`{"answer":"x"}`), noBackoff())

	ctx := logger.ContextWithTraceID(context.Background(), "trace-123")
	_, meta, err := exec.Process(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, "trace-123", meta.TraceID)
}

func TestExecutor_Statistics(t *testing.T) {
	gen := testsupport.NewScriptedGenerator(
		testsupport.Reply{Text: `{"answer":"a"}`},
		testsupport.Reply{Text: `{"answer":"b"}`},
		testsupport.Reply{Text: `not json at all`},
	)
	exec := NewExecutor[string, answer](echoAgent{}, gen, WithRetry(1, 0))

	assert.Equal(t, Statistics{}, exec.Statistics())

	_, _, err := exec.Process(context.Background(), "1")
	require.NoError(t, err)
	_, _, err = exec.Process(context.Background(), "2")
	require.NoError(t, err)
	_, _, err = exec.Process(context.Background(), "3")
	require.Error(t, err)
	_, _, err = exec.Process(context.Background(), "")
	require.Error(t, err)

	stats := exec.Statistics()
	want := Statistics{ExecutionCount: 4, SuccessCount: 2, SuccessRate: 0.5}
	diff := cmp.Diff(want, stats, cmpopts.IgnoreFields(Statistics{}, "AvgProcessingTime", "TotalProcessingTime"))
	assert.Empty(t, diff)
	assert.GreaterOrEqual(t, stats.TotalProcessingTime, 0.0)
}

func TestExecutor_ConcurrentExecutionIDsAreUnique(t *testing.T) {
	exec := NewExecutor[string, answer](echoAgent{}, testsupport.AlwaysReply(`{"answer":"x"}`), noBackoff())

	const n = 50
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, meta, err := exec.Process(context.Background(), "q")
			assert.NoError(t, err)
			ids <- meta.ExecutionID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate execution id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	stats := exec.Statistics()
	assert.Equal(t, int64(n), stats.ExecutionCount)
	assert.Equal(t, int64(n), stats.SuccessCount)
}
