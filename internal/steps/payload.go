package steps

import (
	"context"
	"errors"
	"log/slog"

	"riskgate/internal/castle"
	"riskgate/internal/identity"
	"riskgate/internal/pipeline"
)

// objectAttributesKey is the shared-state area registration flows use to
// stage profile attributes before an identity exists in the directory.
const objectAttributesKey = "objectAttributes"

// defaultMailAttribute is the directory attribute holding the email address.
const defaultMailAttribute = "mail"

// PayloadBuilder assembles a risk request payload from the attempt state and
// an identity lookup. Its only side effect is the directory call.
type PayloadBuilder struct {
	directory     identity.Directory
	headers       *castle.HeaderFilter
	mailAttribute string
	logger        *slog.Logger
}

// PayloadBuilderOption customizes a PayloadBuilder.
type PayloadBuilderOption func(*PayloadBuilder)

// WithMailAttribute overrides the directory attribute used for the email
// field. Defaults to "mail".
func WithMailAttribute(name string) PayloadBuilderOption {
	return func(b *PayloadBuilder) {
		if name != "" {
			b.mailAttribute = name
		}
	}
}

// WithPayloadLogger attaches a structured logger.
func WithPayloadLogger(logger *slog.Logger) PayloadBuilderOption {
	return func(b *PayloadBuilder) {
		b.logger = logger
	}
}

// NewPayloadBuilder builds a payload builder over the given directory and
// header filter.
func NewPayloadBuilder(directory identity.Directory, headers *castle.HeaderFilter, opts ...PayloadBuilderOption) (*PayloadBuilder, error) {
	if directory == nil {
		return nil, errors.New("identity directory is required")
	}
	if headers == nil {
		headers = castle.NewHeaderFilter(nil, nil)
	}

	b := &PayloadBuilder{
		directory:     directory,
		headers:       headers,
		mailAttribute: defaultMailAttribute,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Build assembles the payload for one remote call. The collected request
// token and the username are both required; everything else degrades
// gracefully.
func (b *PayloadBuilder) Build(ctx context.Context, state *pipeline.AuthContext, event castle.Event, status castle.Status) (*castle.Payload, error) {
	token, err := state.RequireRequestToken()
	if err != nil {
		return nil, err
	}
	username, err := state.RequireUsername()
	if err != nil {
		return nil, err
	}

	user := castle.User{Username: username}
	b.resolveUser(ctx, state, &user)

	return &castle.Payload{
		Event:  event.WireValue(),
		Status: status.WireValue(),
		Context: castle.RequestContext{
			IP:      state.ClientIP,
			Headers: b.headers.Apply(state.Headers),
		},
		User:         user,
		RequestToken: token,
	}, nil
}

// resolveUser fills the optional id and email fields. A resolvable identity
// supplies both; otherwise any universal id already in the attempt state is
// used, with the email taken from the staged object attributes if present.
// Lookup failures are logged, never fatal.
func (b *PayloadBuilder) resolveUser(ctx context.Context, state *pipeline.AuthContext, user *castle.User) {
	profile, err := b.directory.Lookup(ctx, state.Username, state.Realm)
	if err == nil {
		user.ID = profile.UniversalID
		if email, ok := profile.Attribute(b.mailAttribute); ok {
			user.Email = email
		} else if b.logger != nil {
			b.logger.WarnContext(ctx, "unable to add user email to the request",
				"username", state.Username,
				"attribute", b.mailAttribute,
			)
		}
		return
	}

	if b.logger != nil {
		b.logger.DebugContext(ctx, "identity not resolved, using attempt state",
			"username", state.Username,
			"realm", state.Realm,
			"error", err,
		)
	}

	// The identity may not exist yet, e.g. in a registration flow.
	user.ID = state.UniversalID
	if attrs, ok := state.Shared[objectAttributesKey].(map[string]any); ok {
		if email, ok := attrs[b.mailAttribute].(string); ok && email != "" {
			user.Email = email
		}
	}
}
