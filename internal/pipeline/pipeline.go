package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/redwiki/redwiki/internal/model"
)

// Step defines one phase of an export run. Steps are executed in
// sequence, each receiving the accumulated run record.
type Step interface {
	// Do executes the step, adding its counts to the record.
	// Returning an error aborts the run; recoverable problems (skipped
	// pages, unresolved links) are counted as warnings instead.
	Do(ctx context.Context, rec *model.RunRecord) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order, stopping on the first error.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a Pipeline with the given options.
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

// AddSteps appends steps to the pipeline in execution order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence against the record, timing the whole
// run. Cancellation is checked between steps; steps handle their own
// in-flight cancellation.
func (p *Pipeline) Execute(ctx context.Context, rec *model.RunRecord) error {
	rec.StartedAt = time.Now()
	defer func() {
		rec.Duration = time.Since(rec.StartedAt)
	}()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("run cancelled", "step", step.Name(), "reason", ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("step starting", "step", step.Name())
		start := time.Now()

		if err := step.Do(ctx, rec); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "error", err)
			return err
		}

		p.logger.Debug("step finished", "step", step.Name(), "elapsed", time.Since(start))
	}

	return nil
}
