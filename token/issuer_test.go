package token_test

import (
	"testing"
	"time"

	"github.com/agrinos/plantclassifier/token"
	"github.com/agrinos/plantclassifier/users"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestIssuer(t *testing.T) {
	issuer := token.NewIssuer(token.NewHMACSigner("secret"), "plantclassifier", 15*time.Minute)
	user := &users.User{ID: "u-1", Email: "grower@example.com", Role: users.RoleAgriculturalIndustry}

	t.Run("issue and verify", func(t *testing.T) {
		raw, err := issuer.Issue(user)
		require.NoError(t, err)

		claims, err := issuer.Verify(raw)
		require.NoError(t, err)
		require.Equal(t, "u-1", claims.Subject)
		require.Equal(t, "grower@example.com", claims.Email)
		require.Equal(t, users.RoleAgriculturalIndustry, claims.Role)
		require.NotEmpty(t, claims.ID)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		a, err := issuer.Issue(user)
		require.NoError(t, err)
		b, err := issuer.Issue(user)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("expired", func(t *testing.T) {
		raw, err := issuer.Issue(user)
		require.NoError(t, err)

		token.NowTimeFunc = func() time.Time { return time.Now().Add(time.Hour) }
		defer func() { token.NowTimeFunc = time.Now }()

		_, err = issuer.Verify(raw)
		require.ErrorIs(t, err, token.ErrInvalidAccessToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := token.NewIssuer(token.NewHMACSigner("other"), "plantclassifier", time.Minute)
		raw, err := other.Issue(user)
		require.NoError(t, err)

		_, err = issuer.Verify(raw)
		require.ErrorIs(t, err, token.ErrInvalidAccessToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := token.NewIssuer(token.NewHMACSigner("secret"), "elsewhere", time.Minute)
		raw, err := other.Issue(user)
		require.NoError(t, err)

		_, err = issuer.Verify(raw)
		require.ErrorIs(t, err, token.ErrInvalidAccessToken)
	})

	t.Run("unsigned token rejected", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Issuer:    "plantclassifier",
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.Verify(raw)
		require.ErrorIs(t, err, token.ErrInvalidAccessToken)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := issuer.Verify("  ")
		require.ErrorIs(t, err, token.ErrInvalidAccessToken)
	})
}
