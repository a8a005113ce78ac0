package pipeline

import "context"

// OutcomeProceed is the single outcome of steps that never branch.
const OutcomeProceed = "proceed"

// Callback is a client interaction requested by a suspending step. The host
// runtime delivers callbacks to the client and feeds the responses back on
// the next turn of the same attempt.
type Callback interface {
	callbackType() string
}

// ScriptCallback asks the client to execute a script.
type ScriptCallback struct {
	Source string `json:"source"`
}

func (ScriptCallback) callbackType() string { return "script" }

// HiddenValueCallback registers a named hidden value the client fills in
// before resuming.
type HiddenValueCallback struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

func (HiddenValueCallback) callbackType() string { return "hidden_value" }

// HiddenValue scans input callbacks for a filled hidden value with the
// given name.
func HiddenValue(callbacks []Callback, name string) (string, bool) {
	for _, cb := range callbacks {
		hv, ok := cb.(HiddenValueCallback)
		if ok && hv.Name == name && hv.Value != "" {
			return hv.Value, true
		}
	}
	return "", false
}

// Result is what a step produced this turn. Exactly one of the two shapes
// occurs: a non-empty Outcome advances the pipeline, while a non-empty
// Callbacks set suspends the attempt until the client responds.
type Result struct {
	Outcome   string
	Callbacks []Callback
}

// Proceed advances with the given outcome.
func Proceed(outcome string) *Result {
	return &Result{Outcome: outcome}
}

// Suspend hands callbacks to the client and pauses the attempt.
func Suspend(callbacks ...Callback) *Result {
	return &Result{Callbacks: callbacks}
}

// Step is one stage of the risk-decision pipeline. Process receives the
// callbacks returned by the client this turn (nil on a fresh turn) and may
// mutate state only on success; a returned error must leave state intact.
type Step interface {
	Name() string
	Process(ctx context.Context, state *AuthContext, callbacks []Callback) (*Result, error)
}
