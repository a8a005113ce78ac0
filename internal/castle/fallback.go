package castle

import "encoding/json"

// FailoverStrategy selects the substitute policy action used when the risk
// service fails in a recoverable way.
type FailoverStrategy int

const (
	FailoverAllow FailoverStrategy = iota
	FailoverChallenge
	FailoverDeny
)

func (s FailoverStrategy) String() string {
	switch s {
	case FailoverChallenge:
		return ActionChallenge
	case FailoverDeny:
		return ActionDeny
	default:
		return ActionAllow
	}
}

// fallbackPolicyID marks synthesized verdicts so they are recognizable in
// logs while keeping the same shape as remote verdicts.
const fallbackPolicyID = "FALLBACK"

// Fallback synthesizes a deterministic substitute verdict for the given
// strategy. The risk values are fixed: 0.3 for allow, 0.7 for challenge,
// 0.99 for deny. No randomness, no I/O.
func Fallback(strategy FailoverStrategy) *Verdict {
	risk := 0.3
	switch strategy {
	case FailoverChallenge:
		risk = 0.7
	case FailoverDeny:
		risk = 0.99
	}

	return &Verdict{
		Risk: risk,
		Policy: Policy{
			Action:     strategy.String(),
			ID:         fallbackPolicyID,
			RevisionID: fallbackPolicyID,
			Name:       fallbackPolicyID,
		},
		Signals: map[string]json.RawMessage{},
		Device:  Device{},
	}
}
