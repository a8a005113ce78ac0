package steps

import (
	"context"
	"errors"
	"log/slog"

	"riskgate/internal/castle"
	"riskgate/internal/pipeline"
	"riskgate/internal/steps/metrics"
)

// Outcomes of the action step, mirroring the canonical policy actions.
const (
	OutcomeAllow     = "allow"
	OutcomeChallenge = "challenge"
	OutcomeDeny      = "deny"
)

// ActionStep routes on the policy action of the stored verdict. An
// unrecognized action routes to deny: the conservative default for a value
// the policy vocabulary does not know. An absent action is a contract
// violation and fails the step instead.
type ActionStep struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// ActionStepOption customizes an ActionStep.
type ActionStepOption func(*ActionStep)

// WithActionLogger attaches a structured logger.
func WithActionLogger(logger *slog.Logger) ActionStepOption {
	return func(s *ActionStep) {
		s.logger = logger
	}
}

// WithActionMetrics attaches step metrics.
func WithActionMetrics(m *metrics.Metrics) ActionStepOption {
	return func(s *ActionStep) {
		s.metrics = m
	}
}

// NewActionStep builds an action step.
func NewActionStep(opts ...ActionStepOption) *ActionStep {
	s := &ActionStep{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ActionStep) Name() string { return "castle_action" }

func (s *ActionStep) Process(ctx context.Context, state *pipeline.AuthContext, _ []pipeline.Callback) (*pipeline.Result, error) {
	verdict, err := state.RequireVerdict()
	if err != nil {
		return nil, err
	}

	action := verdict.Policy.Action
	if action == "" {
		return nil, errors.New("no action in stored verdict policy")
	}

	outcome := OutcomeDeny
	switch action {
	case castle.ActionAllow:
		outcome = OutcomeAllow
	case castle.ActionChallenge:
		outcome = OutcomeChallenge
	case castle.ActionDeny:
	default:
		if s.logger != nil {
			s.logger.WarnContext(ctx, "unrecognized policy action, routing to deny", "action", action)
		}
	}

	s.metrics.IncrementOutcome(s.Name(), outcome)
	return pipeline.Proceed(outcome), nil
}
