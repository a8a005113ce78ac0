package steps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"riskgate/internal/castle"
	"riskgate/internal/pipeline"
)

// FlowSuite exercises a full two-turn login assessment: collection
// handshake, risk call, and the decision steps over the stored verdict.
type FlowSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *FlowSuite) SetupTest() {
	s.ctx = context.Background()
}

func TestFlowSuite(t *testing.T) {
	suite.Run(t, new(FlowSuite))
}

func (s *FlowSuite) TestHighRiskLogin() {
	client := &fakeClient{verdict: verdictWith(0.85, castle.ActionDeny, "velocity_abuse")}

	builder, err := NewPayloadBuilder(seededDirectory(), nil)
	s.Require().NoError(err)

	profiler, err := NewProfilerStep("app-1", "https://cdn.example.com/v1")
	s.Require().NoError(err)

	risk, err := NewRiskStep(client, builder, RequestConfig{
		Event:    castle.EventLogin,
		Status:   castle.StatusSucceeded,
		Failover: castle.FailoverAllow,
	})
	s.Require().NoError(err)

	score, err := NewScoreStep(".6")
	s.Require().NoError(err)

	signal, err := NewSignalStep([]string{"velocity_abuse", "impossible_travel"})
	s.Require().NoError(err)

	runner, err := pipeline.NewRunner([]pipeline.Stage{
		{Step: profiler},
		{Step: risk},
		{Step: NewActionStep(), StopOn: []string{OutcomeDeny, OutcomeChallenge}},
		{Step: score},
		{Step: signal},
	})
	s.Require().NoError(err)

	state := &pipeline.AuthContext{
		Username: "alice",
		Realm:    "example",
		ClientIP: "203.0.113.7",
		Headers:  map[string]string{"User-Agent": "Mozilla/5.0"},
	}

	// Turn one: the profiler suspends for client-side collection.
	first, err := runner.Run(s.ctx, state, 0, nil)
	s.Require().NoError(err)
	s.Require().True(first.Suspended)
	s.Equal(0, first.NextStage)
	s.Len(first.Callbacks, 2)

	// Turn two: the client returns the token, the pipeline runs to the
	// action step and stops on deny.
	filled := []pipeline.Callback{
		pipeline.HiddenValueCallback{Name: pipeline.KeyRequestToken, Value: "tok-1"},
	}
	second, err := runner.Run(s.ctx, state, first.NextStage, filled)
	s.Require().NoError(err)
	s.False(second.Suspended)
	s.Equal(OutcomeDeny, second.Outcome)

	// The remote call saw the resolved identity and the collected token.
	s.Require().Len(client.payloads, 1)
	payload := client.payloads[0]
	s.Equal("$login", payload.Event)
	s.Equal("$succeeded", payload.Status)
	s.Equal("tok-1", payload.RequestToken)
	s.Equal(castle.User{ID: "uid-alice", Username: "alice", Email: "alice@example.com"}, payload.User)

	// The stored verdict still answers the other decision steps.
	scoreResult, err := score.Process(s.ctx, state, nil)
	s.Require().NoError(err)
	s.Equal(OutcomeGreaterOrEqual, scoreResult.Outcome)

	signalResult, err := signal.Process(s.ctx, state, nil)
	s.Require().NoError(err)
	s.Equal("velocity_abuse", signalResult.Outcome)

	// The token was single-use.
	s.Empty(state.RequestToken)
}

func (s *FlowSuite) TestOutageFallsBackToAllow() {
	client := &fakeClient{err: &castle.APIError{Operation: "risk", StatusCode: 503}}

	builder, err := NewPayloadBuilder(seededDirectory(), nil)
	s.Require().NoError(err)

	risk, err := NewRiskStep(client, builder, RequestConfig{
		Event:    castle.EventLogin,
		Status:   castle.StatusSucceeded,
		Failover: castle.FailoverAllow,
	})
	s.Require().NoError(err)

	runner, err := pipeline.NewRunner([]pipeline.Stage{
		{Step: risk},
		{Step: NewActionStep(), StopOn: []string{OutcomeDeny, OutcomeChallenge}},
	})
	s.Require().NoError(err)

	state := collectedState()
	result, err := runner.Run(s.ctx, state, 0, nil)
	s.Require().NoError(err)

	s.Equal(OutcomeAllow, result.Outcome)
	s.Equal(0.3, state.Verdict.Risk)
	s.Equal("FALLBACK", state.Verdict.Policy.Name)
}
