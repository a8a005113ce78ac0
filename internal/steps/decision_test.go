package steps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"riskgate/internal/castle"
	"riskgate/internal/pipeline"
)

type DecisionStepsSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *DecisionStepsSuite) SetupTest() {
	s.ctx = context.Background()
}

func TestDecisionStepsSuite(t *testing.T) {
	suite.Run(t, new(DecisionStepsSuite))
}

func (s *DecisionStepsSuite) stateWith(v *castle.Verdict) *pipeline.AuthContext {
	state := collectedState()
	state.Verdict = v
	return state
}

func (s *DecisionStepsSuite) TestActionStep() {
	step := NewActionStep()

	s.Run("routes each canonical action to its outcome", func() {
		for action, outcome := range map[string]string{
			castle.ActionAllow:     OutcomeAllow,
			castle.ActionChallenge: OutcomeChallenge,
			castle.ActionDeny:      OutcomeDeny,
		} {
			result, err := step.Process(s.ctx, s.stateWith(verdictWith(0.5, action)), nil)
			s.Require().NoError(err)
			s.Equal(outcome, result.Outcome)
		}
	})

	s.Run("unrecognized action routes to deny", func() {
		result, err := step.Process(s.ctx, s.stateWith(verdictWith(0.5, "quarantine")), nil)
		s.Require().NoError(err)
		s.Equal(OutcomeDeny, result.Outcome)
	})

	s.Run("absent action fails the step", func() {
		_, err := step.Process(s.ctx, s.stateWith(verdictWith(0.5, "")), nil)
		s.Require().Error(err)
	})

	s.Run("fails without a stored verdict", func() {
		_, err := step.Process(s.ctx, collectedState(), nil)
		s.Require().ErrorIs(err, pipeline.ErrMissingVerdict)
	})
}

func (s *DecisionStepsSuite) TestScoreStep() {
	s.Run("routes on the threshold with equality as greater-or-equal", func() {
		step, err := NewScoreStep(".6")
		s.Require().NoError(err)

		cases := []struct {
			risk    float64
			outcome string
		}{
			{0.59, OutcomeLessThan},
			{0.6, OutcomeGreaterOrEqual},
			{0.61, OutcomeGreaterOrEqual},
		}
		for _, tc := range cases {
			result, err := step.Process(s.ctx, s.stateWith(verdictWith(tc.risk, castle.ActionAllow)), nil)
			s.Require().NoError(err)
			s.Equal(tc.outcome, result.Outcome)
		}
	})

	s.Run("rejects malformed thresholds at construction", func() {
		_, err := NewScoreStep("sixty percent")
		s.Require().Error(err)
	})

	s.Run("rejects out-of-range thresholds at construction", func() {
		_, err := NewScoreStep("1.5")
		s.Require().Error(err)
		_, err = NewScoreStep("-0.1")
		s.Require().Error(err)
	})

	s.Run("fails without a stored verdict", func() {
		step, err := NewScoreStep(".6")
		s.Require().NoError(err)

		_, err = step.Process(s.ctx, collectedState(), nil)
		s.Require().ErrorIs(err, pipeline.ErrMissingVerdict)
	})
}

func (s *DecisionStepsSuite) TestSignalStep() {
	s.Run("configured order decides precedence", func() {
		step, err := NewSignalStep([]string{"impossible_travel", "velocity_abuse"})
		s.Require().NoError(err)

		verdict := verdictWith(0.5, castle.ActionAllow, "velocity_abuse", "impossible_travel")
		result, err := step.Process(s.ctx, s.stateWith(verdict), nil)
		s.Require().NoError(err)
		s.Equal("impossible_travel", result.Outcome)
	})

	s.Run("unmatched signals route to the reserved outcome", func() {
		step, err := NewSignalStep([]string{"impossible_travel"})
		s.Require().NoError(err)

		verdict := verdictWith(0.5, castle.ActionAllow, "bot_behavior")
		result, err := step.Process(s.ctx, s.stateWith(verdict), nil)
		s.Require().NoError(err)
		s.Equal(OutcomeNoneTriggered, result.Outcome)
	})

	s.Run("empty signal set routes to the reserved outcome", func() {
		step, err := NewSignalStep([]string{"impossible_travel"})
		s.Require().NoError(err)

		result, err := step.Process(s.ctx, s.stateWith(verdictWith(0.5, castle.ActionAllow)), nil)
		s.Require().NoError(err)
		s.Equal(OutcomeNoneTriggered, result.Outcome)
	})

	s.Run("requires a non-empty candidate list", func() {
		_, err := NewSignalStep(nil)
		s.Require().Error(err)
		_, err = NewSignalStep([]string{"", "  "})
		s.Require().Error(err)
	})

	s.Run("trims and deduplicates configured candidates", func() {
		step, err := NewSignalStep([]string{" velocity_abuse ", "velocity_abuse"})
		s.Require().NoError(err)

		verdict := verdictWith(0.5, castle.ActionAllow, "velocity_abuse")
		result, err := step.Process(s.ctx, s.stateWith(verdict), nil)
		s.Require().NoError(err)
		s.Equal("velocity_abuse", result.Outcome)
	})

	s.Run("fails without a stored verdict", func() {
		step, err := NewSignalStep([]string{"velocity_abuse"})
		s.Require().NoError(err)

		_, err = step.Process(s.ctx, collectedState(), nil)
		s.Require().ErrorIs(err, pipeline.ErrMissingVerdict)
	})
}
