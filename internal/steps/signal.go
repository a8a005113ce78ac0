package steps

import (
	"context"
	"errors"

	"riskgate/internal/pipeline"
	"riskgate/internal/steps/metrics"
	pstrings "riskgate/pkg/platform/strings"
)

// OutcomeNoneTriggered is the reserved outcome when no configured signal
// matches the verdict.
const OutcomeNoneTriggered = "None Triggered"

// SignalStep routes on the first configured signal code present in the
// stored verdict. Configured list order strictly determines precedence; the
// ordering of the signals mapping itself never matters.
type SignalStep struct {
	candidates []string
	metrics    *metrics.Metrics
}

// SignalStepOption customizes a SignalStep.
type SignalStepOption func(*SignalStep)

// WithSignalMetrics attaches step metrics.
func WithSignalMetrics(m *metrics.Metrics) SignalStepOption {
	return func(s *SignalStep) {
		s.metrics = m
	}
}

// NewSignalStep builds a signal step over an ordered candidate list.
// Duplicates and blanks are dropped; an effectively empty list is a
// configuration error, the step would have exactly one outcome and route
// nothing.
func NewSignalStep(candidates []string, opts ...SignalStepOption) (*SignalStep, error) {
	candidates = pstrings.DedupeAndTrim(candidates)
	if len(candidates) == 0 {
		return nil, errors.New("at least one signal outcome is required")
	}

	s := &SignalStep{candidates: candidates}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SignalStep) Name() string { return "castle_signal" }

func (s *SignalStep) Process(_ context.Context, state *pipeline.AuthContext, _ []pipeline.Callback) (*pipeline.Result, error) {
	verdict, err := state.RequireVerdict()
	if err != nil {
		return nil, err
	}

	outcome := OutcomeNoneTriggered
	if len(verdict.Signals) > 0 {
		for _, candidate := range s.candidates {
			if _, triggered := verdict.Signals[candidate]; triggered {
				outcome = candidate
				break
			}
		}
	}

	s.metrics.IncrementOutcome(s.Name(), outcome)
	return pipeline.Proceed(outcome), nil
}
