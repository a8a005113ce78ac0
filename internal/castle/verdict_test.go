package castle

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type VerdictSuite struct {
	suite.Suite
}

func TestVerdictSuite(t *testing.T) {
	suite.Run(t, new(VerdictSuite))
}

func (s *VerdictSuite) TestParseVerdict() {
	s.Run("decodes a full response", func() {
		body := []byte(`{
			"risk": 0.85,
			"policy": {"action": "deny", "id": "p-1", "revision_id": "r-1", "name": "High risk"},
			"signals": {"velocity_abuse": {}, "impossible_travel": {}},
			"device": {"token": "dev-token-1"}
		}`)

		v, err := ParseVerdict(body)
		s.Require().NoError(err)
		s.Equal(0.85, v.Risk)
		s.Equal(ActionDeny, v.Policy.Action)
		s.Equal("p-1", v.Policy.ID)
		s.Equal("dev-token-1", v.Device.Token)
		s.ElementsMatch([]string{"velocity_abuse", "impossible_travel"}, v.SignalCodes())
	})

	s.Run("missing signals become an empty set", func() {
		v, err := ParseVerdict([]byte(`{"risk": 0.1, "policy": {"action": "allow"}}`))
		s.Require().NoError(err)
		s.NotNil(v.Signals)
		s.Empty(v.SignalCodes())
	})

	s.Run("rejects risk above one", func() {
		_, err := ParseVerdict([]byte(`{"risk": 1.5}`))
		s.Require().Error(err)
	})

	s.Run("rejects negative risk", func() {
		_, err := ParseVerdict([]byte(`{"risk": -0.2}`))
		s.Require().Error(err)
	})

	s.Run("accepts boundary risk values", func() {
		for _, body := range []string{`{"risk": 0}`, `{"risk": 1}`} {
			_, err := ParseVerdict([]byte(body))
			s.NoError(err)
		}
	})

	s.Run("rejects malformed JSON", func() {
		_, err := ParseVerdict([]byte(`{`))
		s.Require().Error(err)
	})
}

func (s *VerdictSuite) TestEventAndStatusWireValues() {
	s.Run("round-trips every event", func() {
		for ev, wire := range map[Event]string{
			EventLogin:                "$login",
			EventRegistration:         "$registration",
			EventProfileUpdate:        "$profile_update",
			EventTransaction:          "$transaction",
			EventPasswordResetRequest: "$password_reset_request",
		} {
			s.Equal(wire, ev.WireValue())
			parsed, err := ParseEvent(wire)
			s.Require().NoError(err)
			s.Equal(ev, parsed)
		}
	})

	s.Run("round-trips every status", func() {
		for st, wire := range map[Status]string{
			StatusSucceeded: "$succeeded",
			StatusFailed:    "$failed",
			StatusAttempted: "$attempted",
		} {
			s.Equal(wire, st.WireValue())
			parsed, err := ParseStatus(wire)
			s.Require().NoError(err)
			s.Equal(st, parsed)
		}
	})

	s.Run("rejects unknown wire values", func() {
		_, err := ParseEvent("login")
		s.Error(err)
		_, err = ParseStatus("$unknown")
		s.Error(err)
	})
}
