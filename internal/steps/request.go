// Package steps implements the risk-decision stages of the authentication
// pipeline: the remote request steps, the branching decision steps, the
// client-side collection handshake, and device approval.
package steps

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"riskgate/internal/castle"
	"riskgate/internal/pipeline"
	"riskgate/internal/steps/metrics"
)

// operation is one of the remote client's payload-taking calls, bound by a
// concrete request step.
type operation func(ctx context.Context, payload *castle.Payload) (*castle.Verdict, error)

// RequestStep is the shared orchestration skeleton for the remote request
// steps: build payload, call the bound operation, absorb recoverable
// failures through the failover policy, store the verdict. Concrete steps
// differ only in the operation they bind and the defaults they configure.
type RequestStep struct {
	name         string
	op           operation
	opName       string
	builder      *PayloadBuilder
	event        castle.Event
	status       castle.Status
	failover     castle.FailoverStrategy
	storeVerdict bool
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// RequestConfig carries the per-step configuration shared by all request
// step specializations.
type RequestConfig struct {
	Event    castle.Event
	Status   castle.Status
	Failover castle.FailoverStrategy
}

// RequestStepOption customizes a request step.
type RequestStepOption func(*RequestStep)

// WithRequestLogger attaches a structured logger.
func WithRequestLogger(logger *slog.Logger) RequestStepOption {
	return func(s *RequestStep) {
		s.logger = logger
	}
}

// WithRequestMetrics attaches step metrics.
func WithRequestMetrics(m *metrics.Metrics) RequestStepOption {
	return func(s *RequestStep) {
		s.metrics = m
	}
}

// NewRiskStep builds the risk-scoring specialization. The risk call scores
// a completed event; failover defaults to allow so an outage does not lock
// users out of a flow that only scores.
func NewRiskStep(client castle.Client, builder *PayloadBuilder, cfg RequestConfig, opts ...RequestStepOption) (*RequestStep, error) {
	if client == nil {
		return nil, errors.New("castle client is required")
	}
	return newRequestStep("castle_risk", client.Risk, "risk", builder, cfg, true, opts...)
}

// NewFilterStep builds the filtering specialization. Filter assesses an
// attempt before credentials are verified, so status defaults to attempted
// and failover to challenge: when in doubt, step up.
func NewFilterStep(client castle.Client, builder *PayloadBuilder, cfg RequestConfig, opts ...RequestStepOption) (*RequestStep, error) {
	if client == nil {
		return nil, errors.New("castle client is required")
	}
	return newRequestStep("castle_filter", client.Filter, "filter", builder, cfg, true, opts...)
}

// NewLogStep builds the logging specialization. Log records the event for
// offline analysis; the response is not stored and the outcome is always
// proceed.
func NewLogStep(client castle.Client, builder *PayloadBuilder, cfg RequestConfig, opts ...RequestStepOption) (*RequestStep, error) {
	if client == nil {
		return nil, errors.New("castle client is required")
	}
	return newRequestStep("castle_log", client.Log, "log", builder, cfg, false, opts...)
}

func newRequestStep(name string, op operation, opName string, builder *PayloadBuilder, cfg RequestConfig, storeVerdict bool, opts ...RequestStepOption) (*RequestStep, error) {
	if builder == nil {
		return nil, errors.New("payload builder is required")
	}

	s := &RequestStep{
		name:         name,
		op:           op,
		opName:       opName,
		builder:      builder,
		event:        cfg.Event,
		status:       cfg.Status,
		failover:     cfg.Failover,
		storeVerdict: storeVerdict,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *RequestStep) Name() string { return s.name }

// Process runs one remote call. State is mutated only after the call
// returns: a fatal failure leaves the attempt context untouched.
func (s *RequestStep) Process(ctx context.Context, state *pipeline.AuthContext, _ []pipeline.Callback) (*pipeline.Result, error) {
	payload, err := s.builder.Build(ctx, state, s.event, s.status)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	verdict, err := s.op(ctx, payload)
	s.metrics.ObserveRemoteCall(s.opName, time.Since(start))

	if err != nil {
		if !castle.IsRecoverable(err) {
			s.metrics.IncrementFailure(s.opName, "fatal")
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "castle call failed", "operation", s.opName, "error", err)
			}
			return nil, err
		}

		s.metrics.IncrementFailure(s.opName, "recoverable")
		s.metrics.IncrementFallback(s.failover.String())
		if s.logger != nil {
			var ae *castle.APIError
			errors.As(err, &ae)
			s.logger.WarnContext(ctx, "castle unavailable, using fallback verdict",
				"operation", s.opName,
				"status_code", ae.StatusCode,
				"strategy", s.failover.String(),
			)
		}
		verdict = castle.Fallback(s.failover)
	}

	if s.storeVerdict {
		state.Verdict = verdict
	}

	// The collected token fed exactly one request; it must not be reused.
	if _, err := state.ConsumeRequestToken(); err != nil {
		return nil, err
	}

	s.metrics.IncrementOutcome(s.name, pipeline.OutcomeProceed)
	return pipeline.Proceed(pipeline.OutcomeProceed), nil
}
