package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/policycrawl/internal/model"
)

// Step is one stage of a domain pipeline. Each step reads and updates the
// result left by the steps before it.
type Step interface {
	// Do runs the step. A returned error stops the pipeline; degraded
	// outcomes belong in the result.
	Do(ctx context.Context, result *model.CrawlResult) error

	// Name identifies the step in logs.
	Name() string
}

// Pipeline runs its steps in order against a single result.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for step tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends step; steps run in the order they were added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// Execute runs the steps until one fails or ctx is cancelled.
// Cancellation is checked between steps; a running step observes ctx itself.
func (p *Pipeline) Execute(ctx context.Context, result *model.CrawlResult) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"domain", result.Domain,
				"reason", err,
			)
			return err
		}

		started := time.Now()
		if err := step.Do(ctx, result); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"domain", result.Domain,
				"error", err,
			)
			return err
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"domain", result.Domain,
			"elapsed", time.Since(started),
		)
	}
	return nil
}
