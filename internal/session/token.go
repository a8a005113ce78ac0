// Package session issues the signed session token handed out when an
// attempt completes with an allow outcome.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "riskgate/pkg/domain-errors"
)

// Claims are the session token claims.
type Claims struct {
	Username string `json:"username"`
	Realm    string `json:"realm"`
	Outcome  string `json:"outcome"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates session tokens.
type TokenIssuer struct {
	signingKey []byte
	ttl        time.Duration
}

// NewTokenIssuer builds an issuer. The signing key is required.
func NewTokenIssuer(signingKey string, ttl time.Duration) (*TokenIssuer, error) {
	if signingKey == "" {
		return nil, errors.New("session: signing key is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{signingKey: []byte(signingKey), ttl: ttl}, nil
}

// Issue mints a signed token for a completed attempt.
func (s *TokenIssuer) Issue(username, realm, outcome string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: username,
		Realm:    realm,
		Outcome:  outcome,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "riskgate",
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Validate parses and verifies a session token.
func (s *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeForbidden, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeForbidden, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeForbidden, "invalid token")
	}
	return claims, nil
}
