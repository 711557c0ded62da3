package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mintJWT signs a throwaway HS256 token for tests. The SDK never
// verifies signatures, so the key is irrelevant.
func mintJWT(t *testing.T, subject string, expireAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Issuer:    "https://keyline.example.com",
		Subject:   subject,
		Audience:  jwt.ClaimStrings{"test-audience"},
		ExpiresAt: jwt.NewNumericDate(expireAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

// mintRawJWT is the helper variant usable inside rapid property
// callbacks, which do not carry a *testing.T.
func mintRawJWT(expireAt time.Time) string {
	claims := jwt.RegisteredClaims{
		Subject:   "user_prop",
		ExpiresAt: jwt.NewNumericDate(expireAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	raw, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	return raw
}

func mintToken(t *testing.T, subject string, expireAt time.Time) *Token {
	t.Helper()
	tok, err := Parse(mintJWT(t, subject, expireAt))
	require.NoError(t, err)
	return tok
}

func TestParse(t *testing.T) {
	expireAt := time.Now().Add(time.Minute).Truncate(time.Second)
	raw := mintJWT(t, "user_1", expireAt)

	tok, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, raw, tok.Raw())
	assert.Equal(t, "https://keyline.example.com", tok.Issuer())
	assert.Equal(t, "user_1", tok.Subject())
	assert.Equal(t, []string{"test-audience"}, tok.Audience())
	assert.True(t, tok.ExpireAt().Equal(expireAt))
	assert.False(t, tok.IssuedAt().IsZero())
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("not-a-jwt")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	raw := mintJWT(t, "user_2", time.Now().Add(time.Minute))

	tok, err := FromJSON(JSON{Object: "token", JWT: raw})
	require.NoError(t, err)
	assert.Equal(t, raw, tok.Raw())
	assert.Equal(t, "user_2", tok.Subject())
}

func TestAudienceIsACopy(t *testing.T) {
	tok := mintToken(t, "user_3", time.Now().Add(time.Minute))
	aud := tok.Audience()
	aud[0] = "mutated"
	assert.Equal(t, []string{"test-audience"}, tok.Audience())
}
