package steps

import (
	"context"

	"riskgate/internal/castle"
	"riskgate/internal/identity"
	"riskgate/internal/pipeline"
)

// fakeClient scripts the remote risk service for step tests. Each operation
// returns the configured verdict or error and records the payload it saw.
type fakeClient struct {
	verdict *castle.Verdict
	err     error

	payloads       []*castle.Payload
	operations     []string
	approvedTokens []string
	approveErr     error
}

func (f *fakeClient) call(op string, payload *castle.Payload) (*castle.Verdict, error) {
	f.operations = append(f.operations, op)
	f.payloads = append(f.payloads, payload)
	if f.err != nil {
		return nil, f.err
	}
	return f.verdict, nil
}

func (f *fakeClient) Risk(_ context.Context, payload *castle.Payload) (*castle.Verdict, error) {
	return f.call("risk", payload)
}

func (f *fakeClient) Filter(_ context.Context, payload *castle.Payload) (*castle.Verdict, error) {
	return f.call("filter", payload)
}

func (f *fakeClient) Log(_ context.Context, payload *castle.Payload) (*castle.Verdict, error) {
	return f.call("log", payload)
}

func (f *fakeClient) ApproveDevice(_ context.Context, deviceToken string) error {
	f.approvedTokens = append(f.approvedTokens, deviceToken)
	return f.approveErr
}

// seededDirectory returns a directory holding alice in the example realm.
func seededDirectory() *identity.InMemoryDirectory {
	dir := identity.NewInMemoryDirectory()
	dir.Put("alice", "example", &identity.Profile{
		UniversalID: "uid-alice",
		Attributes:  map[string][]string{"mail": {"alice@example.com"}},
	})
	return dir
}

// collectedState returns attempt state as it looks after the collection
// handshake completed.
func collectedState() *pipeline.AuthContext {
	return &pipeline.AuthContext{
		Username:     "alice",
		Realm:        "example",
		ClientIP:     "203.0.113.7",
		Headers:      map[string]string{"User-Agent": "Mozilla/5.0", "Cookie": "session=abc"},
		AppID:        "app-1",
		RequestToken: "tok-1",
	}
}

func verdictWith(risk float64, action string, signals ...string) *castle.Verdict {
	v := castle.Fallback(castle.FailoverAllow)
	v.Risk = risk
	v.Policy = castle.Policy{Action: action, ID: "p-1", RevisionID: "r-1", Name: "Test policy"}
	for _, sig := range signals {
		v.Signals[sig] = []byte(`{}`)
	}
	return v
}
