package backend

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer credential for each request.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken serves a fixed bearer token from configuration.
// When the token is a JWT its exp claim is checked locally so an expired
// session is reported as ErrUnauthorized without a round trip.
type StaticToken struct {
	token string
	now   func() time.Time
}

// NewStaticToken wraps a configured token.
func NewStaticToken(token string) *StaticToken {
	return &StaticToken{token: strings.TrimSpace(token), now: time.Now}
}

// Token returns the credential or ErrUnauthorized when it is missing or expired.
func (s *StaticToken) Token() (string, error) {
	if s.token == "" {
		return "", fmt.Errorf("no token configured: %w", ErrUnauthorized)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.token, claims); err != nil {
		// Opaque tokens are passed through for the backend to judge.
		return s.token, nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return s.token, nil
	}
	if !exp.After(s.now()) {
		return "", fmt.Errorf("token expired at %s: %w", exp.Time.Format(time.RFC3339), ErrUnauthorized)
	}
	return s.token, nil
}

// Subject returns the JWT subject claim, or "" for opaque tokens.
func (s *StaticToken) Subject() string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.token, claims); err != nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}
