package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Stage binds a step into a runner sequence. Outcomes listed in StopOn end
// the pipeline at this stage; any other outcome falls through to the next
// stage. Decision steps use StopOn to make deny/challenge terminal while
// allow continues.
type Stage struct {
	Step   Step
	StopOn []string
}

// Runner executes stages strictly sequentially within one attempt. One
// attempt is processed by one logical thread of control; different attempts
// may run concurrently with independent Runner state (Runner itself is
// immutable after construction).
type Runner struct {
	stages []Stage
	logger *slog.Logger
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithLogger attaches a structured logger for per-stage progress logs.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner builds a runner over the given stages.
func NewRunner(stages []Stage, opts ...RunnerOption) (*Runner, error) {
	if len(stages) == 0 {
		return nil, errors.New("pipeline: at least one stage is required")
	}
	for i, st := range stages {
		if st.Step == nil {
			return nil, fmt.Errorf("pipeline: stage %d has no step", i)
		}
	}
	r := &Runner{stages: stages}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RunResult reports where a run ended. When Suspended is true the attempt
// is waiting for the client: the host persists state and NextStage, then
// resumes with the collected callbacks. Otherwise Outcome is the outcome of
// the stage the pipeline stopped at.
type RunResult struct {
	Outcome   string
	Suspended bool
	NextStage int
	Callbacks []Callback
}

// Run executes stages from startStage, feeding callbacks to the first stage
// only (they belong to the turn being resumed). If the context is cancelled
// while a stage is outstanding no further state is touched and the error
// propagates.
func (r *Runner) Run(ctx context.Context, state *AuthContext, startStage int, callbacks []Callback) (*RunResult, error) {
	if startStage < 0 || startStage >= len(r.stages) {
		return nil, fmt.Errorf("pipeline: stage %d out of range", startStage)
	}

	for i := startStage; i < len(r.stages); i++ {
		stage := r.stages[i]

		in := callbacks
		if i != startStage {
			in = nil
		}

		result, err := stage.Step.Process(ctx, state, in)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", stage.Step.Name(), err)
		}

		if len(result.Callbacks) > 0 {
			if r.logger != nil {
				r.logger.DebugContext(ctx, "pipeline suspended", "step", stage.Step.Name())
			}
			return &RunResult{Suspended: true, NextStage: i, Callbacks: result.Callbacks}, nil
		}

		if r.logger != nil {
			r.logger.DebugContext(ctx, "step completed",
				"step", stage.Step.Name(),
				"outcome", result.Outcome,
			)
		}

		for _, stop := range stage.StopOn {
			if result.Outcome == stop {
				return &RunResult{Outcome: result.Outcome, NextStage: len(r.stages)}, nil
			}
		}

		if i == len(r.stages)-1 {
			return &RunResult{Outcome: result.Outcome, NextStage: len(r.stages)}, nil
		}
	}

	// Unreachable: the loop always returns from its last iteration.
	return nil, errors.New("pipeline: no stages executed")
}
