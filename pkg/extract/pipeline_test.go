package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linkdeck-backend/internal/ingest/domain"
)

type countingModel struct {
	calls int
	links []domain.ExtractedLink
	err   error
	delay time.Duration
}

func (m *countingModel) Extract(ctx context.Context, msg *domain.InboundMessage) ([]domain.ExtractedLink, error) {
	m.calls++
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	return m.links, m.err
}

func TestPipelineFastPathSkipsModel(t *testing.T) {
	model := &countingModel{}
	p := NewPipeline(NewPatternExtractor(), model, zap.NewNop())

	msg := &domain.InboundMessage{
		From:    "author@pub.substack.com",
		Subject: "Weekly Digest",
		HTML:    `<a href="https://pub.substack.com/app-link/post?x=1">Read</a>`,
	}
	links, err := p.Extract(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Zero(t, model.calls)
}

func TestPipelineFallsBackOnUnknownPlatform(t *testing.T) {
	model := &countingModel{links: []domain.ExtractedLink{{URL: "https://example.com/post"}}}
	p := NewPipeline(NewPatternExtractor(), model, zap.NewNop())

	msg := &domain.InboundMessage{From: "editor@ghost.io", HTML: "<p>hi</p>"}
	links, err := p.Extract(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, 1, model.calls)
}

func TestPipelineFallsBackWhenPatternMisses(t *testing.T) {
	model := &countingModel{links: []domain.ExtractedLink{{URL: "https://example.com/post"}}}
	p := NewPipeline(NewPatternExtractor(), model, zap.NewNop())

	msg := &domain.InboundMessage{From: "author@pub.substack.com", HTML: "<p>no links</p>"}
	_, err := p.Extract(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, 1, model.calls)
}

func TestPipelineModelErrorPropagates(t *testing.T) {
	model := &countingModel{err: &domain.LLMError{Message: "provider down"}}
	p := NewPipeline(NewPatternExtractor(), model, zap.NewNop())

	msg := &domain.InboundMessage{From: "editor@ghost.io"}
	_, err := p.Extract(context.Background(), msg)
	var llmErr *domain.LLMError
	assert.ErrorAs(t, err, &llmErr)
}

func TestPipelineTimeout(t *testing.T) {
	model := &countingModel{delay: time.Second}
	p := NewPipeline(NewPatternExtractor(), model, zap.NewNop())
	p.timeout = 20 * time.Millisecond

	msg := &domain.InboundMessage{From: "editor@ghost.io"}
	_, err := p.Extract(context.Background(), msg)
	var timeoutErr *domain.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 20*time.Millisecond, timeoutErr.Timeout)
}

func TestPipelineCallerCancellationIsNotATimeout(t *testing.T) {
	model := &countingModel{delay: time.Second}
	p := NewPipeline(NewPatternExtractor(), model, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	msg := &domain.InboundMessage{From: "editor@ghost.io"}
	_, err := p.Extract(ctx, msg)
	require.ErrorIs(t, err, context.Canceled)

	var timeoutErr *domain.TimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
}

func TestPipelineTimeoutMasksUnderlyingError(t *testing.T) {
	model := &countingModel{delay: time.Second, err: errors.New("slow failure")}
	p := NewPipeline(NewPatternExtractor(), model, zap.NewNop())
	p.timeout = 20 * time.Millisecond

	msg := &domain.InboundMessage{From: "editor@ghost.io"}
	_, err := p.Extract(context.Background(), msg)
	var timeoutErr *domain.TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
}
