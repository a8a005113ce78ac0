package castle

import (
	"encoding/json"
	"fmt"
)

// Canonical policy action strings returned by the risk service.
const (
	ActionAllow     = "allow"
	ActionChallenge = "challenge"
	ActionDeny      = "deny"
)

// Policy is the coarse recommendation attached to a verdict.
type Policy struct {
	Action     string `json:"action"`
	ID         string `json:"id"`
	RevisionID string `json:"revision_id"`
	Name       string `json:"name"`
}

// Device identifies the device the risk service associated with the attempt.
type Device struct {
	Token string `json:"token,omitempty"`
}

// Verdict is the normalized risk assessment for one attempt. A verdict is
// either decoded from the remote response or synthesized by the failover
// policy; downstream steps cannot distinguish the two structurally.
type Verdict struct {
	Risk    float64                    `json:"risk"`
	Policy  Policy                     `json:"policy"`
	Signals map[string]json.RawMessage `json:"signals"`
	Device  Device                     `json:"device"`
}

// ParseVerdict decodes and validates a raw response body. Signals are kept
// as raw JSON; only the triggered reason codes (the keys) matter to the
// decision steps.
func ParseVerdict(body []byte) (*Verdict, error) {
	var v Verdict
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}
	if v.Risk < 0 || v.Risk > 1 {
		return nil, fmt.Errorf("verdict risk %v outside [0,1]", v.Risk)
	}
	if v.Signals == nil {
		v.Signals = map[string]json.RawMessage{}
	}
	return &v, nil
}

// SignalCodes returns the triggered reason codes. Empty means none triggered.
func (v *Verdict) SignalCodes() []string {
	codes := make([]string, 0, len(v.Signals))
	for code := range v.Signals {
		codes = append(codes, code)
	}
	return codes
}
