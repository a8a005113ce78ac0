package pipeline

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"riskgate/internal/castle"
)

type AuthContextSuite struct {
	suite.Suite
}

func TestAuthContextSuite(t *testing.T) {
	suite.Run(t, new(AuthContextSuite))
}

func (s *AuthContextSuite) TestRequireUsername() {
	s.Run("returns the username when set", func() {
		state := &AuthContext{Username: "alice"}
		name, err := state.RequireUsername()
		s.Require().NoError(err)
		s.Equal("alice", name)
	})

	s.Run("reports the missing key when unset", func() {
		_, err := (&AuthContext{}).RequireUsername()
		var missing *MissingContextError
		s.Require().ErrorAs(err, &missing)
		s.Equal("username", missing.Key)
	})
}

func (s *AuthContextSuite) TestConsumeRequestToken() {
	s.Run("returns the token exactly once", func() {
		state := &AuthContext{RequestToken: "tok-1"}

		token, err := state.ConsumeRequestToken()
		s.Require().NoError(err)
		s.Equal("tok-1", token)

		_, err = state.ConsumeRequestToken()
		var missing *MissingContextError
		s.Require().ErrorAs(err, &missing)
		s.Equal(KeyRequestToken, missing.Key)
	})

	s.Run("require does not consume", func() {
		state := &AuthContext{RequestToken: "tok-1"}

		_, err := state.RequireRequestToken()
		s.Require().NoError(err)
		_, err = state.RequireRequestToken()
		s.Require().NoError(err)
	})
}

func (s *AuthContextSuite) TestRequireVerdict() {
	s.Run("returns the stored verdict", func() {
		v := castle.Fallback(castle.FailoverAllow)
		state := &AuthContext{Verdict: v}

		got, err := state.RequireVerdict()
		s.Require().NoError(err)
		s.Same(v, got)
	})

	s.Run("fails with ErrMissingVerdict when absent", func() {
		_, err := (&AuthContext{}).RequireVerdict()
		s.Require().ErrorIs(err, ErrMissingVerdict)
	})
}

func (s *AuthContextSuite) TestSharedString() {
	state := &AuthContext{Shared: map[string]any{
		"mail":  "alice@example.com",
		"count": 3,
		"empty": "",
	}}

	s.Run("reads string values", func() {
		v, ok := state.SharedString("mail")
		s.True(ok)
		s.Equal("alice@example.com", v)
	})

	s.Run("non-string and empty values read as absent", func() {
		_, ok := state.SharedString("count")
		s.False(ok)
		_, ok = state.SharedString("empty")
		s.False(ok)
		_, ok = state.SharedString("missing")
		s.False(ok)
	})

	s.Run("nil shared map reads as absent", func() {
		_, ok := (&AuthContext{}).SharedString("mail")
		s.False(ok)
	})
}
