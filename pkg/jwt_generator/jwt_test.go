//go:build unit

package jwt_generator

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-api/pkg/config"
)

const (
	TestUserEmail = "test@test.com"
	TestUserName  = "Test User"
	TestUserRole  = "user"
)

var (
	TestUserID = uuid.New().String()

	TestJwtConfig = config.JwtConfig{
		AccessTokenSecret:  []byte("access-token-secret"),
		AccessTokenTtl:     15 * time.Minute,
		RefreshTokenSecret: []byte("refresh-token-secret"),
		RefreshTokenTtl:    7 * 24 * time.Hour,
	}
)

func newTestJwtGenerator(t *testing.T) JwtGenerator {
	jwtGenerator, err := NewJwtGenerator(TestJwtConfig)
	require.NoError(t, err)

	return jwtGenerator
}

func TestNewJwtGenerator(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		jwtGenerator, err := NewJwtGenerator(TestJwtConfig)

		assert.NoError(t, err)
		assert.Implements(t, (*JwtGenerator)(nil), jwtGenerator)
	})

	t.Run("empty access token secret", func(t *testing.T) {
		jwtGenerator, err := NewJwtGenerator(config.JwtConfig{
			RefreshTokenSecret: []byte("refresh-token-secret"),
		})

		assert.ErrorIs(t, err, ErrEmptySecret)
		assert.Nil(t, jwtGenerator)
	})

	t.Run("same secret for both token classes", func(t *testing.T) {
		jwtGenerator, err := NewJwtGenerator(config.JwtConfig{
			AccessTokenSecret:  []byte("secret"),
			RefreshTokenSecret: []byte("secret"),
		})

		assert.ErrorIs(t, err, ErrSameSecret)
		assert.Nil(t, jwtGenerator)
	})
}

func TestJwtGenerator_GenerateAccessToken(t *testing.T) {
	jwtGenerator := newTestJwtGenerator(t)

	expirationDate := time.Now().UTC().Add(5 * time.Minute)
	token, err := jwtGenerator.GenerateAccessToken(
		expirationDate,
		TestUserName,
		TestUserEmail,
		TestUserRole,
		TestUserID,
	)

	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestJwtGenerator_GenerateRefreshToken(t *testing.T) {
	jwtGenerator := newTestJwtGenerator(t)

	expirationTime := time.Now().UTC().Add(24 * time.Hour)
	token, err := jwtGenerator.GenerateRefreshToken(expirationTime, TestUserID)
	require.NoError(t, err)

	otherToken, err := jwtGenerator.GenerateRefreshToken(expirationTime, TestUserID)
	require.NoError(t, err)

	assert.NotEmpty(t, token)
	assert.NotEqual(t, token, otherToken)
}

func TestJwtGenerator_VerifyAccessToken(t *testing.T) {
	jwtGenerator := newTestJwtGenerator(t)

	t.Run("happy path", func(t *testing.T) {
		expirationDate := time.Now().UTC().Add(5 * time.Minute)
		token, err := jwtGenerator.GenerateAccessToken(
			expirationDate,
			TestUserName,
			TestUserEmail,
			TestUserRole,
			TestUserID,
		)
		require.NoError(t, err)

		claims, err := jwtGenerator.VerifyAccessToken(token)

		require.NoError(t, err)
		assert.Equal(t, TestUserID, claims.Subject)
		assert.Equal(t, TestUserEmail, claims.Email)
		assert.Equal(t, TestUserName, claims.FullName)
		assert.Equal(t, TestUserRole, claims.Role)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := jwtGenerator.GenerateAccessToken(
			time.Now().UTC().Add(-time.Minute),
			TestUserName,
			TestUserEmail,
			TestUserRole,
			TestUserID,
		)
		require.NoError(t, err)

		claims, err := jwtGenerator.VerifyAccessToken(token)

		assert.ErrorIs(t, err, ErrExpiredToken)
		assert.Nil(t, claims)
	})

	t.Run("malformed token", func(t *testing.T) {
		claims, err := jwtGenerator.VerifyAccessToken("abcd.abcd.abcd")

		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("refresh token should not verify as access token", func(t *testing.T) {
		token, err := jwtGenerator.GenerateRefreshToken(time.Now().UTC().Add(time.Hour), TestUserID)
		require.NoError(t, err)

		claims, err := jwtGenerator.VerifyAccessToken(token)

		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("token signed with none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   TestUserID,
				Issuer:    IssuerDefault,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		rawToken, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		claims, err := jwtGenerator.VerifyAccessToken(rawToken)

		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("token from another issuer", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   TestUserID,
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		rawToken, err := token.SignedString(TestJwtConfig.AccessTokenSecret)
		require.NoError(t, err)

		claims, err := jwtGenerator.VerifyAccessToken(rawToken)

		assert.ErrorIs(t, err, ErrAmbiguousIssuer)
		assert.Nil(t, claims)
	})
}

func TestJwtGenerator_VerifyRefreshToken(t *testing.T) {
	jwtGenerator := newTestJwtGenerator(t)

	t.Run("happy path", func(t *testing.T) {
		token, err := jwtGenerator.GenerateRefreshToken(time.Now().UTC().Add(time.Hour), TestUserID)
		require.NoError(t, err)

		claims, err := jwtGenerator.VerifyRefreshToken(token)

		require.NoError(t, err)
		assert.Equal(t, TestUserID, claims.Subject)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := jwtGenerator.GenerateRefreshToken(time.Now().UTC().Add(-time.Second), TestUserID)
		require.NoError(t, err)

		claims, err := jwtGenerator.VerifyRefreshToken(token)

		assert.ErrorIs(t, err, ErrExpiredToken)
		assert.Nil(t, claims)
	})

	t.Run("access token should not verify as refresh token", func(t *testing.T) {
		token, err := jwtGenerator.GenerateAccessToken(
			time.Now().UTC().Add(time.Hour),
			TestUserName,
			TestUserEmail,
			TestUserRole,
			TestUserID,
		)
		require.NoError(t, err)

		claims, err := jwtGenerator.VerifyRefreshToken(token)

		assert.Error(t, err)
		assert.Nil(t, claims)
	})
}
