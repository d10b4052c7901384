package services

import (
	"context"
	"fmt"
	"log/slog"
)

// Step is one unit of a multi-write flow. Compensate undoes Run and is
// only called after Run succeeded. A nil Compensate marks the step as
// not undoable.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga executes steps in order. When a step fails, the compensations
// of every step that already ran are executed in reverse order, so the
// stores are left as if the flow never started. Compensation failures
// are logged and do not stop the rollback.
type Saga struct {
	name  string
	steps []Step
}

func NewSaga(name string) *Saga {
	return &Saga{name: name}
}

func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

func (s *Saga) Execute(ctx context.Context) error {
	done := make([]Step, 0, len(s.steps))

	for _, step := range s.steps {
		if err := step.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "Saga step failed, rolling back",
				"saga", s.name,
				"step", step.Name,
				"completed_steps", len(done),
				"error", err)
			s.rollback(ctx, done)
			return fmt.Errorf("saga %s: step %s: %w", s.name, step.Name, err)
		}
		done = append(done, step)
	}

	return nil
}

func (s *Saga) rollback(ctx context.Context, done []Step) {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			slog.WarnContext(ctx, "Saga step has no compensation",
				"saga", s.name,
				"step", step.Name)
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "Saga compensation failed",
				"saga", s.name,
				"step", step.Name,
				"error", err)
			continue
		}
		slog.InfoContext(ctx, "Saga step compensated",
			"saga", s.name,
			"step", step.Name)
	}
}
