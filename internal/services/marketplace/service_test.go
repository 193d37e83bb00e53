package marketplace

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/adapters/ai"
	"marketplace/internal/agents"
	"marketplace/internal/agents/moderation"
	"marketplace/internal/agents/pricing"
	"marketplace/internal/events"
	"marketplace/internal/repository/memory"
	"marketplace/internal/testsupport"
	"marketplace/pkg/errors"
)

// recordingPublisher captures published events
type recordingPublisher struct {
	mu       sync.Mutex
	prices   []*events.PriceSuggestedEvent
	verdicts []*events.MessageModeratedEvent
	failures []*events.ModerationFailedEvent
}

func (r *recordingPublisher) PublishPriceSuggested(_ context.Context, e *events.PriceSuggestedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prices = append(r.prices, e)
}

func (r *recordingPublisher) PublishMessageModerated(_ context.Context, e *events.MessageModeratedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verdicts = append(r.verdicts, e)
}

func (r *recordingPublisher) PublishModerationFailed(_ context.Context, e *events.ModerationFailedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, e)
}

func newTestService(t *testing.T, pricingGen, moderationGen ai.Generator) (*Service, *recordingPublisher) {
	t.Helper()

	opts := []agents.Option{agents.WithRetry(1, 0)}
	repo := memory.NewListingRepositoryFrom(memory.FallbackListings())
	publisher := &recordingPublisher{}

	svc := NewService(
		pricing.NewAgent(repo, pricingGen, pricing.Config{Executor: opts}),
		moderation.NewAgent(moderationGen, moderation.Config{Executor: opts}),
		publisher,
	)
	return svc, publisher
}

func ptr[T any](v T) *T { return &v }

func validPriceInput() PriceInput {
	return PriceInput{
		Title:       ptr("iPhone 12"),
		Category:    ptr("Mobile"),
		Brand:       ptr("Apple"),
		Condition:   ptr("Good"),
		AgeMonths:   ptr(24.0),
		AskingPrice: ptr(35000.0),
		Location:    ptr("Mumbai"),
	}
}

func TestPriceInput_Request(t *testing.T) {
	req, err := validPriceInput().Request()
	require.NoError(t, err)
	assert.Equal(t, "Apple", req.Brand)
	assert.Equal(t, 35000.0, req.AskingPrice)

	zeroAge := validPriceInput()
	zeroAge.AgeMonths = ptr(0.0)
	req, err = zeroAge.Request()
	require.NoError(t, err)
	assert.Zero(t, req.AgeMonths)

	tests := []struct {
		field string
		clear func(*PriceInput)
	}{
		{"title", func(in *PriceInput) { in.Title = nil }},
		{"condition", func(in *PriceInput) { in.Condition = nil }},
		{"age_months", func(in *PriceInput) { in.AgeMonths = nil }},
		{"asking_price", func(in *PriceInput) { in.AskingPrice = nil }},
		{"location", func(in *PriceInput) { in.Location = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			in := validPriceInput()
			tt.clear(&in)

			_, err := in.Request()
			var verr *errors.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestModerationInput_Request(t *testing.T) {
	_, err := ModerationInput{}.Request()
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	req, err := ModerationInput{Message: ptr("hello"), Context: "listing chat"}.Request()
	require.NoError(t, err)
	assert.Equal(t, moderation.Request{Message: "hello", Context: "listing chat"}, req)
}

func TestSuggestPrice_PublishesDecision(t *testing.T) {
	svc, publisher := newTestService(t, testsupport.AlwaysFail(), ai.NewMockGenerator())

	req, err := validPriceInput().Request()
	require.NoError(t, err)

	result := svc.SuggestPrice(context.Background(), req)
	assert.Equal(t, pricing.TierFallback, result.Tier)
	assert.LessOrEqual(t, result.SuggestedPriceRange.Min, result.SuggestedPriceRange.Max)

	require.Len(t, publisher.prices, 1)
	assert.Equal(t, pricing.TierFallback, publisher.prices[0].Tier)
	assert.Equal(t, result.Metadata.ExecutionID, publisher.prices[0].ExecutionID)
}

func TestModerateMessage(t *testing.T) {
	t.Run("verdict is published", func(t *testing.T) {
		svc, publisher := newTestService(t, ai.NewMockGenerator(), ai.NewMockGenerator())

		result, err := svc.ModerateMessage(context.Background(), moderation.Request{Message: "Is this available?"})
		require.NoError(t, err)
		assert.Equal(t, moderation.StatusSafe, result.Status)
		assert.Len(t, publisher.verdicts, 1)
		assert.Empty(t, publisher.failures)
	})

	t.Run("generation failure is published and returned", func(t *testing.T) {
		svc, publisher := newTestService(t, ai.NewMockGenerator(), testsupport.AlwaysFail())

		result, err := svc.ModerateMessage(context.Background(), moderation.Request{Message: "call 9876543210"})
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, errors.ErrGeneration))
		require.Len(t, publisher.failures, 1)
		assert.True(t, publisher.failures[0].PreAnalysis.PhoneDetected)
	})

	t.Run("validation failure is not published", func(t *testing.T) {
		svc, publisher := newTestService(t, ai.NewMockGenerator(), ai.NewMockGenerator())

		_, err := svc.ModerateMessage(context.Background(), moderation.Request{Message: "  "})
		assert.True(t, errors.Is(err, errors.ErrInvalidInput))
		assert.Empty(t, publisher.failures)
		assert.Empty(t, publisher.verdicts)
	})
}

func TestBatchSuggest(t *testing.T) {
	svc, _ := newTestService(t, testsupport.AlwaysFail(), ai.NewMockGenerator())

	missing := validPriceInput()
	missing.AskingPrice = nil

	out := svc.BatchSuggest(context.Background(), []PriceInput{validPriceInput(), missing, validPriceInput()})

	require.Len(t, out.Results, 3)
	assert.Equal(t, 3, out.TotalProcessed)

	for i, item := range out.Results {
		assert.Equal(t, i, item.Index)
	}
	assert.True(t, out.Results[0].Success)
	assert.NotNil(t, out.Results[0].Result)
	assert.False(t, out.Results[1].Success)
	assert.Nil(t, out.Results[1].Result)
	assert.Contains(t, out.Results[1].Error, "asking_price")
	assert.True(t, out.Results[2].Success)

	// the item with an absent field never reaches the agent
	assert.Equal(t, int64(2), svc.Statistics().PriceSuggestor.TotalExecutions)
}

func TestBatchModerate(t *testing.T) {
	gen := testsupport.NewScriptedGenerator(
		testsupport.Reply{Text: `{"status":"safe","reason":"ok","confidence":0.9,"detected_elements":[],"severity":"low","action_recommended":"none"}`},
		testsupport.Reply{Text: "not json"},
	)
	svc, _ := newTestService(t, ai.NewMockGenerator(), gen)

	out := svc.BatchModerate(context.Background(), []ModerationInput{
		{Message: ptr("first")},
		{},
		{Message: ptr("third")},
	})

	require.Len(t, out.Results, 3)
	assert.True(t, out.Results[0].Success)
	assert.Equal(t, moderation.StatusSafe, out.Results[0].Result.Status)
	assert.False(t, out.Results[1].Success)
	assert.Contains(t, out.Results[1].Error, "message")
	assert.False(t, out.Results[2].Success)
	assert.NotEmpty(t, out.Results[2].Error)
	assert.Equal(t, 3, out.TotalProcessed)
}

func TestStatistics(t *testing.T) {
	svc, _ := newTestService(t, testsupport.AlwaysFail(), ai.NewMockGenerator())

	empty := svc.Statistics()
	assert.Zero(t, empty.Overall.TotalExecutions)
	assert.Zero(t, empty.Overall.SuccessRate)

	req, err := validPriceInput().Request()
	require.NoError(t, err)
	svc.SuggestPrice(context.Background(), req)

	_, err = svc.ModerateMessage(context.Background(), moderation.Request{Message: "hello"})
	require.NoError(t, err)

	stats := svc.Statistics()
	assert.Equal(t, int64(1), stats.PriceSuggestor.TotalExecutions)
	assert.Zero(t, stats.PriceSuggestor.SuccessRate)
	assert.Equal(t, int64(1), stats.ChatModerator.TotalExecutions)
	assert.Equal(t, 1.0, stats.ChatModerator.SuccessRate)
	assert.Equal(t, int64(2), stats.Overall.TotalExecutions)
	assert.Equal(t, 0.5, stats.Overall.SuccessRate)

	snaps := svc.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, "price_suggestor", snaps[0].Agent)
	assert.Equal(t, int64(0), snaps[0].Successes)
	assert.Equal(t, "chat_moderator", snaps[1].Agent)
	assert.Equal(t, int64(1), snaps[1].Successes)
}

// heldProducer blocks every write until released or its context ends
type heldProducer struct {
	release chan struct{}
}

func (h *heldProducer) Publish(ctx context.Context, _, _ string, _ interface{}) error {
	select {
	case <-h.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestBatchSuggest_SlowEventsDoNotDelayResponse(t *testing.T) {
	producer := &heldProducer{release: make(chan struct{})}
	publisher := events.NewPublisher(producer, "")
	t.Cleanup(func() {
		close(producer.release)
		publisher.Wait()
	})

	opts := []agents.Option{agents.WithRetry(1, 0)}
	repo := memory.NewListingRepositoryFrom(memory.FallbackListings())
	svc := NewService(
		pricing.NewAgent(repo, testsupport.AlwaysFail(), pricing.Config{Executor: opts}),
		moderation.NewAgent(ai.NewMockGenerator(), moderation.Config{Executor: opts}),
		publisher,
	)

	items := make([]PriceInput, 20)
	for i := range items {
		items[i] = validPriceInput()
	}

	start := time.Now()
	out := svc.BatchSuggest(context.Background(), items)

	assert.Equal(t, 20, out.TotalProcessed)
	assert.Less(t, time.Since(start), time.Second)
}
