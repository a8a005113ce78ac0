package steps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"riskgate/internal/castle"
	"riskgate/internal/pipeline"
)

type ApproveDeviceStepSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *ApproveDeviceStepSuite) SetupTest() {
	s.ctx = context.Background()
}

func TestApproveDeviceStepSuite(t *testing.T) {
	suite.Run(t, new(ApproveDeviceStepSuite))
}

func (s *ApproveDeviceStepSuite) TestProcess() {
	s.Run("approves the device behind the stored verdict", func() {
		client := &fakeClient{}
		step, err := NewApproveDeviceStep(client)
		s.Require().NoError(err)

		verdict := verdictWith(0.2, castle.ActionAllow)
		verdict.Device.Token = "dev-token-1"
		state := collectedState()
		state.Verdict = verdict

		result, err := step.Process(s.ctx, state, nil)
		s.Require().NoError(err)
		s.Equal(pipeline.OutcomeProceed, result.Outcome)
		s.Equal([]string{"dev-token-1"}, client.approvedTokens)
	})

	s.Run("fails when the verdict carries no device token", func() {
		client := &fakeClient{}
		step, err := NewApproveDeviceStep(client)
		s.Require().NoError(err)

		state := collectedState()
		state.Verdict = verdictWith(0.2, castle.ActionAllow)

		_, err = step.Process(s.ctx, state, nil)
		s.Require().Error(err)
		s.Empty(client.approvedTokens)
	})

	s.Run("fails without a stored verdict", func() {
		step, err := NewApproveDeviceStep(&fakeClient{})
		s.Require().NoError(err)

		_, err = step.Process(s.ctx, collectedState(), nil)
		s.Require().ErrorIs(err, pipeline.ErrMissingVerdict)
	})

	s.Run("propagates remote failures", func() {
		client := &fakeClient{approveErr: &castle.APIError{Operation: "approve_device", StatusCode: 404}}
		step, err := NewApproveDeviceStep(client)
		s.Require().NoError(err)

		verdict := verdictWith(0.2, castle.ActionAllow)
		verdict.Device.Token = "dev-token-1"
		state := collectedState()
		state.Verdict = verdict

		_, err = step.Process(s.ctx, state, nil)
		s.Require().Error(err)
	})
}
