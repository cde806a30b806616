package extract

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"linkdeck-backend/internal/ingest/domain"
)

// DefaultModelTimeout bounds the model-based fallback stage.
const DefaultModelTimeout = 30 * time.Second

// ModelExtractor is the expensive fallback stage.
type ModelExtractor interface {
	Extract(ctx context.Context, msg *domain.InboundMessage) ([]domain.ExtractedLink, error)
}

// Pipeline runs the two extraction stages in order: the pattern fast path,
// then the timeout-guarded model fallback. First success wins; the model
// stage is never invoked after a fast-path hit.
type Pipeline struct {
	pattern *PatternExtractor
	model   ModelExtractor
	timeout time.Duration
	logger  *zap.Logger
}

func NewPipeline(pattern *PatternExtractor, model ModelExtractor, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		pattern: pattern,
		model:   model,
		timeout: DefaultModelTimeout,
		logger:  logger,
	}
}

func (p *Pipeline) Extract(ctx context.Context, msg *domain.InboundMessage) ([]domain.ExtractedLink, error) {
	links, err := p.pattern.Extract(msg)
	if err == nil {
		p.logger.Debug("pattern fast path hit", zap.String("gmail_id", msg.GmailID))
		return links, nil
	}
	if !errors.Is(err, domain.ErrFastPathNotApplicable) && !errors.Is(err, domain.ErrNoPatternLink) {
		return nil, err
	}

	p.logger.Debug("falling back to model extraction",
		zap.String("gmail_id", msg.GmailID),
		zap.String("reason", err.Error()),
	)
	return p.extractWithTimeout(ctx, msg)
}

// extractWithTimeout runs the model stage in a goroutine so a hung provider
// call cannot stall the pipeline past the deadline. Exceeding the deadline
// yields TimeoutError regardless of the underlying cause; caller cancellation
// propagates as is.
func (p *Pipeline) extractWithTimeout(ctx context.Context, msg *domain.InboundMessage) ([]domain.ExtractedLink, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type result struct {
		links []domain.ExtractedLink
		err   error
	}
	done := make(chan result, 1)

	go func() {
		links, err := p.model.Extract(ctx, msg)
		done <- result{links: links, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, p.stageError(ctx)
	case r := <-done:
		if r.err != nil {
			if ctx.Err() != nil {
				return nil, p.stageError(ctx)
			}
			return nil, r.err
		}
		return r.links, nil
	}
}

// stageError maps an expired stage context to the caller-facing error. Only a
// hit deadline becomes TimeoutError; a cancelled caller is not a slow model.
func (p *Pipeline) stageError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.TimeoutError{Timeout: p.timeout}
	}
	return ctx.Err()
}
