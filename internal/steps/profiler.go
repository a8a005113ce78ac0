package steps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"riskgate/internal/pipeline"
)

// collectionScript is injected into the client to mint a request token via
// the risk service's browser SDK and feed it back through the hidden value.
// Two paths: hosts exposing a loginHelpers callback registry, and a DOM
// fallback that wires the primary button directly.
const collectionScript = `var script = document.createElement('script');
script.type = 'text/javascript';
script.src = '%s'
document.getElementsByTagName('head')[0].appendChild(script);
var submitCollectedData = function functionSubmitCollectedData() {
_castle('createRequestToken').then(function(requestToken) {loginHelpers.setHiddenCallback('request_token', requestToken)})}
if (typeof loginHelpers !== 'undefined') {
    loginHelpers.nextStepCallback(submitCollectedData)
} else {
var submitCollectedDataXUI = function functionSubmitCollectedData() {
_castle('createRequestToken').then(function(requestToken) {
document.getElementById('request_token').value = requestToken;
document.getElementById('loginButton_0').click();})};
var submitButton = document.getElementsByClassName('btn-primary')[0];
submitButton.addEventListener('click', submitCollectedDataXUI, false);}
`

// ProfilerStep runs the two-phase client-side collection handshake. With no
// collected token this turn it suspends with the collection script and a
// hidden-value placeholder; once the client returns the token it stores
// the app id and token and proceeds. Phase detection is solely the presence
// of the expected hidden value in this turn's callbacks.
type ProfilerStep struct {
	appID  string
	cdnURI string
	logger *slog.Logger
}

// ProfilerStepOption customizes a ProfilerStep.
type ProfilerStepOption func(*ProfilerStep)

// WithProfilerLogger attaches a structured logger.
func WithProfilerLogger(logger *slog.Logger) ProfilerStepOption {
	return func(s *ProfilerStep) {
		s.logger = logger
	}
}

// NewProfilerStep builds the handshake step. App id and CDN URI come from
// the service configuration; both are required.
func NewProfilerStep(appID, cdnURI string, opts ...ProfilerStepOption) (*ProfilerStep, error) {
	if appID == "" {
		return nil, errors.New("castle app id is required")
	}
	if cdnURI == "" {
		return nil, errors.New("castle cdn uri is required")
	}

	s := &ProfilerStep{appID: appID, cdnURI: cdnURI}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *ProfilerStep) Name() string { return "castle_profiler" }

func (s *ProfilerStep) Process(ctx context.Context, state *pipeline.AuthContext, callbacks []pipeline.Callback) (*pipeline.Result, error) {
	if token, ok := pipeline.HiddenValue(callbacks, pipeline.KeyRequestToken); ok {
		if s.logger != nil {
			s.logger.DebugContext(ctx, "request token collected", "app_id", s.appID)
		}
		state.AppID = s.appID
		state.RequestToken = token
		return pipeline.Proceed(pipeline.OutcomeProceed), nil
	}

	scriptSrc := fmt.Sprintf("%s?%s", s.cdnURI, s.appID)
	if s.logger != nil {
		s.logger.DebugContext(ctx, "sending client side collection script")
	}

	return pipeline.Suspend(
		pipeline.ScriptCallback{Source: fmt.Sprintf(collectionScript, scriptSrc)},
		pipeline.HiddenValueCallback{Name: pipeline.KeyRequestToken},
	), nil
}
