package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identity struct {
	id    uint
	email string
	role  string
}

func (i identity) IdentityID() uint       { return i.id }
func (i identity) IdentityEmail() string  { return i.email }
func (i identity) CredentialHash() string { return "" }
func (i identity) AuthorityRole() string  { return i.role }

func TestIssueAndParse(t *testing.T) {
	issuer := NewJWTIssuer("test-secret", time.Minute)

	token, err := issuer.IssueAccessToken(identity{id: 4, email: "ada@example.com", role: "ADMIN"})
	require.NoError(t, err)

	claims, err := issuer.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(4), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Subject)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestParseRejects(t *testing.T) {
	issuer := NewJWTIssuer("test-secret", time.Minute)
	token, err := issuer.IssueAccessToken(identity{id: 1, email: "a@example.com", role: "USER"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewJWTIssuer("other", time.Minute).ParseAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewJWTIssuer("test-secret", time.Minute)
		late.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		_, err := late.ParseAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.ParseAccessToken("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "a@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = issuer.ParseAccessToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestGenerateRefreshToken(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, HashRefreshToken(raw), hash)
	assert.Len(t, hash, 64)

	other, _, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, other)
}
