// Package token holds the session token value object and the
// process-wide token cache consulted by session resources.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JSON is the wire representation of a token resource.
type JSON struct {
	Object string `json:"object"`
	JWT    string `json:"jwt"`
}

// Token is an immutable signed credential plus its decoded claims.
// Expiry comes from the embedded exp claim, never from wall-clock
// bookkeeping on the client.
type Token struct {
	raw      string
	issuer   string
	subject  string
	audience []string
	expireAt time.Time
	issuedAt time.Time
}

var parser = jwt.NewParser()

// Parse decodes a compact JWS string without verifying its signature.
// The SDK is a bearer of server-issued tokens, not a verifier.
func Parse(raw string) (*Token, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	t := &Token{
		raw:      raw,
		issuer:   claims.Issuer,
		subject:  claims.Subject,
		audience: append([]string(nil), claims.Audience...),
	}
	if claims.ExpiresAt != nil {
		t.expireAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		t.issuedAt = claims.IssuedAt.Time
	}
	return t, nil
}

// FromJSON builds a Token from its wire representation.
func FromJSON(data JSON) (*Token, error) {
	return Parse(data.JWT)
}

// Raw returns the encoded credential string handed to bearers.
func (t *Token) Raw() string { return t.raw }

func (t *Token) Issuer() string  { return t.issuer }
func (t *Token) Subject() string { return t.subject }

// Audience returns a copy of the aud claim.
func (t *Token) Audience() []string {
	return append([]string(nil), t.audience...)
}

// ExpireAt is the zero time when the token carries no exp claim.
func (t *Token) ExpireAt() time.Time { return t.expireAt }
func (t *Token) IssuedAt() time.Time { return t.issuedAt }
