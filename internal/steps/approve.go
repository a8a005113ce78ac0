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

// ApproveDeviceStep marks the device behind the stored verdict as trusted,
// typically after a successful step-up challenge. Requires a verdict with a
// device token; a verdict without one means the risk service did not
// associate a device and approval cannot proceed.
type ApproveDeviceStep struct {
	client  castle.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// ApproveDeviceStepOption customizes an ApproveDeviceStep.
type ApproveDeviceStepOption func(*ApproveDeviceStep)

// WithApproveLogger attaches a structured logger.
func WithApproveLogger(logger *slog.Logger) ApproveDeviceStepOption {
	return func(s *ApproveDeviceStep) {
		s.logger = logger
	}
}

// WithApproveMetrics attaches step metrics.
func WithApproveMetrics(m *metrics.Metrics) ApproveDeviceStepOption {
	return func(s *ApproveDeviceStep) {
		s.metrics = m
	}
}

// NewApproveDeviceStep builds a device approval step.
func NewApproveDeviceStep(client castle.Client, opts ...ApproveDeviceStepOption) (*ApproveDeviceStep, error) {
	if client == nil {
		return nil, errors.New("castle client is required")
	}

	s := &ApproveDeviceStep{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *ApproveDeviceStep) Name() string { return "castle_approve_device" }

func (s *ApproveDeviceStep) Process(ctx context.Context, state *pipeline.AuthContext, _ []pipeline.Callback) (*pipeline.Result, error) {
	verdict, err := state.RequireVerdict()
	if err != nil {
		return nil, err
	}
	if verdict.Device.Token == "" {
		return nil, errors.New("no device token in stored verdict")
	}

	start := time.Now()
	err = s.client.ApproveDevice(ctx, verdict.Device.Token)
	s.metrics.ObserveRemoteCall("approve_device", time.Since(start))
	if err != nil {
		s.metrics.IncrementFailure("approve_device", "fatal")
		return nil, err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "device approved", "username", state.Username)
	}
	s.metrics.IncrementOutcome(s.Name(), pipeline.OutcomeProceed)
	return pipeline.Proceed(pipeline.OutcomeProceed), nil
}
