package httptransport

import "riskgate/internal/pipeline"

// CallbackOutput is one client interaction requested by a suspended attempt.
type CallbackOutput struct {
	Type   string `json:"type"`
	Source string `json:"source,omitempty"`
	Name   string `json:"name,omitempty"`
}

// AttemptResponse reports the state of an attempt after a turn. Either
// Callbacks is set (the attempt is suspended, resume with collected
// values) or Outcome is set (the attempt completed).
type AttemptResponse struct {
	AttemptID    string           `json:"attempt_id,omitempty"`
	Callbacks    []CallbackOutput `json:"callbacks,omitempty"`
	Outcome      string           `json:"outcome,omitempty"`
	SessionToken string           `json:"session_token,omitempty"`
}

func toCallbackOutputs(callbacks []pipeline.Callback) []CallbackOutput {
	out := make([]CallbackOutput, 0, len(callbacks))
	for _, cb := range callbacks {
		switch c := cb.(type) {
		case pipeline.ScriptCallback:
			out = append(out, CallbackOutput{Type: "script", Source: c.Source})
		case pipeline.HiddenValueCallback:
			out = append(out, CallbackOutput{Type: "hidden_value", Name: c.Name})
		}
	}
	return out
}
