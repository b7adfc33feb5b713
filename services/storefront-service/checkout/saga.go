package checkout

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Step is one unit of a checkout. Compensate may be nil for steps whose
// effect is kept when a later step fails.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepError reports which step stopped the saga.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Orchestrator runs steps in order and, when one fails, compensates the
// completed ones in reverse order.
type Orchestrator struct {
	logger *zap.Logger
}

func NewOrchestrator(logger *zap.Logger) *Orchestrator {
	return &Orchestrator{logger: logger}
}

// Run executes steps sequentially and returns a *StepError for the first
// failure.
func (o *Orchestrator) Run(ctx context.Context, steps ...Step) error {
	done := make([]Step, 0, len(steps))
	for _, step := range steps {
		o.logger.Debug("Executing step", zap.String("step", step.Name))
		if err := step.Execute(ctx); err != nil {
			o.logger.Warn("Step failed, compensating",
				zap.String("step", step.Name),
				zap.Int("completed", len(done)),
				zap.Error(err),
			)
			o.rollback(ctx, done)
			return &StepError{Step: step.Name, Err: err}
		}
		done = append(done, step)
	}
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, steps []Step) {
	// compensations run even when the request context is already gone
	ctx = context.WithoutCancel(ctx)
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if step.Compensate == nil {
			continue
		}
		o.logger.Info("Compensating step", zap.String("step", step.Name))
		if err := step.Compensate(ctx); err != nil {
			o.logger.Error("Failed to compensate step", zap.String("step", step.Name), zap.Error(err))
		}
	}
}
