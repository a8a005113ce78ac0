package steps

import (
	"context"
	"fmt"
	"strconv"

	"riskgate/internal/pipeline"
	"riskgate/internal/steps/metrics"
)

// Outcomes of the score step.
const (
	OutcomeGreaterOrEqual = "greater_than_or_equal"
	OutcomeLessThan       = "less_than"
)

// ScoreStep routes on the numeric risk of the stored verdict against a
// configured threshold. Boundary equality routes to greater-or-equal.
type ScoreStep struct {
	threshold float64
	metrics   *metrics.Metrics
}

// ScoreStepOption customizes a ScoreStep.
type ScoreStepOption func(*ScoreStep)

// WithScoreMetrics attaches step metrics.
func WithScoreMetrics(m *metrics.Metrics) ScoreStepOption {
	return func(s *ScoreStep) {
		s.metrics = m
	}
}

// NewScoreStep builds a score step from a decimal threshold string in
// [0,1]. A malformed or out-of-range threshold is a configuration error
// surfaced at construction.
func NewScoreStep(threshold string, opts ...ScoreStepOption) (*ScoreStep, error) {
	value, err := strconv.ParseFloat(threshold, 64)
	if err != nil {
		return nil, fmt.Errorf("parse score threshold %q: %w", threshold, err)
	}
	if value < 0 || value > 1 {
		return nil, fmt.Errorf("score threshold %v outside [0,1]", value)
	}

	s := &ScoreStep{threshold: value}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *ScoreStep) Name() string { return "castle_score" }

func (s *ScoreStep) Process(_ context.Context, state *pipeline.AuthContext, _ []pipeline.Callback) (*pipeline.Result, error) {
	verdict, err := state.RequireVerdict()
	if err != nil {
		return nil, err
	}

	outcome := OutcomeLessThan
	if verdict.Risk >= s.threshold {
		outcome = OutcomeGreaterOrEqual
	}

	s.metrics.IncrementOutcome(s.Name(), outcome)
	return pipeline.Proceed(outcome), nil
}
