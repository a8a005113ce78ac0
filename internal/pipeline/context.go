// Package pipeline defines the per-attempt state and step contract for the
// risk-decision stage. The host runtime owns attempt sequencing and
// persistence between turns; this package owns the state shape and the
// transition logic of individual steps.
package pipeline

import (
	"errors"
	"fmt"

	"riskgate/internal/castle"
)

// Canonical shared-state keys, as seen by the host runtime and client.
const (
	KeyCastleResponse = "castle_response"
	KeyAppID          = "app_id"
	KeyRequestToken   = "request_token"
)

// MissingContextError reports a required context key that was absent when a
// step needed it. Fatal: the pipeline is misassembled or the client skipped
// a turn.
type MissingContextError struct {
	Key string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("required context key %q is not set", e.Key)
}

// ErrMissingVerdict reports a decision step running before any verdict was
// stored. Indicates a misordered pipeline, not a recoverable condition.
var ErrMissingVerdict = errors.New("no risk verdict in context: does a risk request step precede this step?")

// AuthContext is the mutable per-attempt state shared across steps. Steps
// read and write named fields but never assume exclusive ownership; Shared
// is the escape hatch for host-owned keys this core does not interpret.
// Lifetime is one authentication attempt.
type AuthContext struct {
	Username    string `json:"username"`
	UniversalID string `json:"universal_id,omitempty"`
	Realm       string `json:"realm"`

	ClientIP string            `json:"client_ip,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`

	AppID        string `json:"app_id,omitempty"`
	RequestToken string `json:"request_token,omitempty"`

	Verdict *castle.Verdict `json:"castle_response,omitempty"`

	Shared map[string]any `json:"shared,omitempty"`
}

// RequireUsername returns the username or a MissingContextError.
func (c *AuthContext) RequireUsername() (string, error) {
	if c.Username == "" {
		return "", &MissingContextError{Key: "username"}
	}
	return c.Username, nil
}

// RequireRequestToken returns the collected request token or a
// MissingContextError. Tokens are single-use attempt artifacts; callers
// consume them via ConsumeRequestToken.
func (c *AuthContext) RequireRequestToken() (string, error) {
	if c.RequestToken == "" {
		return "", &MissingContextError{Key: KeyRequestToken}
	}
	return c.RequestToken, nil
}

// ConsumeRequestToken returns the collected token and clears it so it
// cannot feed a second risk request within the same attempt.
func (c *AuthContext) ConsumeRequestToken() (string, error) {
	token, err := c.RequireRequestToken()
	if err != nil {
		return "", err
	}
	c.RequestToken = ""
	return token, nil
}

// RequireVerdict returns the stored verdict or ErrMissingVerdict.
func (c *AuthContext) RequireVerdict() (*castle.Verdict, error) {
	if c.Verdict == nil {
		return nil, ErrMissingVerdict
	}
	return c.Verdict, nil
}

// SharedString reads a string value from the escape-hatch area. A missing
// or non-string value reads as absent, never as an error.
func (c *AuthContext) SharedString(key string) (string, bool) {
	if c.Shared == nil {
		return "", false
	}
	v, ok := c.Shared[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
